package storage

import (
	"encoding/json"
	"strings"
	"testing"

	"listing-counter/models"
)

func TestBuildInsertPlaceholders(t *testing.T) {
	batch := []models.Record{
		rec("2024-03-07", "Oslo", "leiligheter", 10, 5),
		rec("2024-03-07", "Oslo", "tomter", 3, 1),
	}

	query, args := buildInsert(batch)

	if !strings.HasPrefix(query, "INSERT INTO listing_counts (date, city, category, finn, hjem, total) VALUES ") {
		t.Errorf("unexpected statement: %s", query)
	}
	if !strings.HasSuffix(query, "($1,$2,$3,$4,$5,$6),($7,$8,$9,$10,$11,$12)") {
		t.Errorf("unexpected placeholders: %s", query)
	}
	if len(args) != 12 {
		t.Fatalf("got %d args, want 12", len(args))
	}
	if args[0] != "2024-03-07" || args[1] != "Oslo" || args[5] != 15 || args[11] != 4 {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestCycleMessageShape(t *testing.T) {
	records := []models.Record{
		rec("2024-03-07", "Norge", "leiligheter", 10, 5),
		rec("2024-03-07", "Oslo", "tomter", 3, 1),
	}

	raw, err := json.Marshal(newCycleMessage(records))
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Date    string `json:"date"`
		Records []struct {
			Date  string `json:"date"`
			City  string `json:"city"`
			Total int    `json:"total"`
		} `json:"records"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}

	if decoded.Date != "2024-03-07" || len(decoded.Records) != 2 {
		t.Fatalf("unexpected message %s", raw)
	}
	if decoded.Records[0].City != "Norge" || decoded.Records[0].Total != 15 || decoded.Records[1].Date != "2024-03-07" {
		t.Errorf("unexpected records %s", raw)
	}
}
