package finn

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"listing-counter/config"
	"listing-counter/models"
	"listing-counter/scraper"
	"listing-counter/utils"
)

func TestSearchURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		region   config.Region
		category config.Category
		want     string
	}{
		{
			name:     "regional",
			region:   config.Region{Name: "Oslo", Finn: "0.20061"},
			category: config.Category{Name: "leiligheter", Finn: "1"},
			want:     "https://www.finn.no/realestate/homes/search.html?location=0.20061&property_type=1",
		},
		{
			name:     "nationwide",
			region:   config.Region{Name: "Norge"},
			category: config.Category{Name: "tomter", Finn: "3"},
			want:     "https://www.finn.no/realestate/homes/search.html?property_type=3",
		},
		{
			name:     "custom base with trailing slash",
			base:     "http://localhost:8080/",
			region:   config.Region{Name: "Agder", Finn: "0.22042"},
			category: config.Category{Name: "eneboliger", Finn: "2"},
			want:     "http://localhost:8080/realestate/homes/search.html?location=0.22042&property_type=2",
		},
	}

	for _, tt := range tests {
		got, err := SearchURL(tt.base, tt.region, tt.category)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s:\n got %s\nwant %s", tt.name, got, tt.want)
		}
	}

	if _, err := SearchURL("", config.Region{Name: "Oslo"}, config.Category{Name: "hytter"}); err == nil {
		t.Error("expected an error for a category without a finn code")
	}
}

func TestClientAgainstSearchPage(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/realestate/homes/search.html" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><head><meta name="description" content="Finn 4 169 boliger til salgs i Oslo."></head></html>`)
	}))
	defer srv.Close()

	logger, _ := utils.NewLoggerWithConfig(utils.LogConfig{Level: "error", Writer: io.Discard})
	c := New(srv.URL, scraper.NewCollyFetcher("", time.Second), logger)

	res := c.Count(context.Background(),
		config.Region{Name: "Oslo", Finn: "0.20061"},
		config.Category{Name: "leiligheter", Finn: "1"})

	if !res.OK() || res.Count != 4169 {
		t.Fatalf("got %+v, want 4169", res)
	}
	if res.Source != models.SourceFinn || res.Strategy != "finn:meta-description" {
		t.Errorf("unexpected provenance %+v", res)
	}
	if gotQuery != "location=0.20061&property_type=1" {
		t.Errorf("query: got %q", gotQuery)
	}
}

func TestClientTimeoutYieldsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	logger, _ := utils.NewLoggerWithConfig(utils.LogConfig{Level: "error", Writer: io.Discard})
	c := New(srv.URL, scraper.NewCollyFetcher("", 100*time.Millisecond), logger)

	res := c.Count(context.Background(), config.Region{Name: "Norge"}, config.Category{Name: "tomter", Finn: "3"})
	if res.Count != 0 || res.Failure != models.NetworkFailure {
		t.Errorf("got %+v, want network failure with zero count", res)
	}
}
