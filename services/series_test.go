package services

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"listing-counter/models"
	"listing-counter/storage"
)

func record(date, city, category string, finn, hjem int) models.Record {
	d, _ := time.Parse(models.DateLayout, date)
	return models.Record{Date: d, City: city, Category: category, Finn: finn, Hjem: hjem, Total: finn + hjem}
}

func TestDailyTotalsSumsSameDay(t *testing.T) {
	records := []models.Record{
		record("2024-03-08", "Oslo", "leiligheter", 1, 1),
		record("2024-03-07", "Oslo", "leiligheter", 10, 5),
		record("2024-03-07", "Oslo", "tomter", 3, 1),
		record("2024-03-07", "Oslo", "leiligheter", 11, 6), // forced re-scrape
	}

	points := DailyTotals(records)
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	first := points[0]
	if first.Date.Format(models.DateLayout) != "2024-03-07" || first.Finn != 24 || first.Hjem != 12 || first.Total != 36 {
		t.Errorf("first point: got %+v", first)
	}
	if points[1].Total != 2 {
		t.Errorf("second point: got %+v", points[1])
	}

	if got := DailyTotals(nil); len(got) != 0 {
		t.Errorf("empty input should give no points, got %v", got)
	}
}

func TestChart(t *testing.T) {
	store := storage.NewCSVStore(filepath.Join(t.TempDir(), "data.csv"))
	err := store.AppendBatch([]models.Record{
		record("2024-03-08", "Oslo", "leiligheter", 12, 6),
		record("2024-03-07", "Oslo", "leiligheter", 10, 5),
		record("2024-03-07", "Agder", "leiligheter", 99, 99),
		record("2024-03-07", "Oslo", "tomter", 3, 1),
	})
	if err != nil {
		t.Fatal(err)
	}

	chart, err := NewSeriesService(store, newTestLogger()).Chart("Oslo")
	if err != nil {
		t.Fatal(err)
	}

	want := &models.Chart{
		Region: "Oslo",
		Dates:  []string{"2024-03-07", "2024-03-08"},
		Finn:   []int{13, 12},
		Hjem:   []int{6, 6},
		Total:  []int{19, 18},
	}
	if !reflect.DeepEqual(chart, want) {
		t.Errorf("got %+v, want %+v", chart, want)
	}
}

func TestChartWithoutData(t *testing.T) {
	store := storage.NewCSVStore(filepath.Join(t.TempDir(), "absent.csv"))
	chart, err := NewSeriesService(store, newTestLogger()).Chart("Oslo")
	if err != nil {
		t.Fatal(err)
	}
	if len(chart.Dates) != 0 || chart.Region != "Oslo" {
		t.Errorf("expected an empty chart, got %+v", chart)
	}
}

func TestSummarizeAndPrint(t *testing.T) {
	records := []models.Record{
		record("2024-03-07", "Norge", "leiligheter", 100, 50),
		record("2024-03-07", "Norge", "tomter", 0, 0),
		record("2024-03-07", "Oslo", "leiligheter", 10, 5),
	}

	sum := Summarize(records)
	if sum.Records != 3 || sum.FinnTotal != 110 || sum.HjemTotal != 55 || sum.GrandTotal != 165 {
		t.Errorf("unexpected totals %+v", sum)
	}
	if sum.ByRegion["Norge"] != 150 || sum.ByRegion["Oslo"] != 15 {
		t.Errorf("unexpected per-region totals %v", sum.ByRegion)
	}
	if len(sum.ZeroPairs) != 1 || sum.ZeroPairs[0] != "Norge/tomter" {
		t.Errorf("unexpected zero pairs %v", sum.ZeroPairs)
	}

	sum.HjemMisses = 1
	svc := NewSeriesService(nil, newTestLogger())
	var buf bytes.Buffer
	svc.out = &buf
	svc.Print(sum, []string{"Norge", "Oslo", "Agder"})

	out := buf.String()
	for _, want := range []string{"Records written", "165", "Norge", "Oslo", "Norge/tomter", "hjem.no failures"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Norge") > strings.Index(out, "Oslo") {
		t.Errorf("regions should follow catalog order")
	}
	if strings.Contains(out, "Agder") {
		t.Errorf("regions without records should be skipped")
	}
}
