package extract

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"listing-counter/models"
)

func fixture(t *testing.T, name string) *models.RawResponse {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	ct := "text/html; charset=utf-8"
	if filepath.Ext(name) == ".json" {
		ct = "application/json"
	}
	return &models.RawResponse{URL: "https://example.test/" + name, StatusCode: 200, ContentType: ct, Body: body}
}

func html(body string) *models.RawResponse {
	return &models.RawResponse{StatusCode: 200, ContentType: "text/html", Body: []byte(body)}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"4 169", 4169, true},
		{"4 169", 4169, true},
		{"4169", 4169, true},
		{"4 169", 4169, true},
		{" 12 000 ", 12000, true},
		{"0", 0, true},
		{"", 0, false},
		{"   ", 0, false},
		{" ", 0, false},
		{"4,169", 0, false},
		{"4.169", 0, false},
		{"-3", 0, false},
		{"99999999999999999999999", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseCount(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseCount(%q) = %d, %v; want %d, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFinnChain(t *testing.T) {
	tests := []struct {
		name string
		resp *models.RawResponse
		want int
	}{
		{"captured search page", fixture(t, "finn_search.html"), 4169},
		{"description without count", fixture(t, "finn_no_count.html"), 0},
		{"nbsp separator", html(`<meta name="description" content="Finn 4` + " " + `169 boliger til salgs">`), 4169},
		{"nbsp before marker", html(`<meta name="description" content="4169` + " " + `boliger">`), 4169},
		{"matched but empty digits", html(`<meta name="description" content="Ingen boliger funnet">`), 0},
		{"bare marker before the count", html(`<meta name="description" content="Kjøp boliger i Oslo: 4 169 boliger til salgs">`), 4169},
		{"bare marker before nbsp count", html("<meta name=\"description\" content=\"Boliger i Oslo: 4\u00a0169 boliger\">"), 4169},
		{"tag absent", html(`<html><head><title>FINN</title></head></html>`), 0},
		{"empty body", html(""), 0},
		{"nil response", nil, 0},
	}

	chain := FinnChain()
	for _, tt := range tests {
		if got := chain.Count(tt.resp); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestHjemStrategiesIndividually(t *testing.T) {
	chain := HjemChain()
	byName := make(map[string]Strategy, len(chain))
	for _, s := range chain {
		byName[s.Name()] = s
	}

	tests := []struct {
		strategy string
		fixture  string
		want     int
	}{
		{"hjem:count-api", "hjem_count_api.json", 2718},
		{"hjem:count-api", "hjem_count_api_alias.json", 1204},
		{"hjem:meta-head-count", "hjem_head_count.html", 3055},
		{"hjem:heading-results", "hjem_heading.html", 1482},
		{"hjem:meta-description", "hjem_description.html", 12006},
		{"hjem:structured-data", "hjem_ld_json.html", 877},
		{"hjem:structured-data", "hjem_next_data.html", 5312},
	}

	for _, tt := range tests {
		s, ok := byName[tt.strategy]
		if !ok {
			t.Fatalf("strategy %q not in chain", tt.strategy)
		}
		got, ok := s.Attempt(NewDocument(fixture(t, tt.fixture)))
		if !ok || got != tt.want {
			t.Errorf("%s on %s = %d, %v; want %d, true", tt.strategy, tt.fixture, got, ok, tt.want)
		}
	}
}

func TestHjemMarkerWordBeforeCount(t *testing.T) {
	tests := []struct {
		name     string
		resp     *models.RawResponse
		want     int
		strategy string
	}{
		{"heading", html(`<h1>Søk resultater i Oslo: 1 482 resultater</h1>`), 1482, "hjem:heading-results"},
		{"heading with treff", html(`<h1>Treff i Bergen: 311 treff</h1>`), 311, "hjem:heading-results"},
		{"description", html(`<meta name="description" content="Boliger til salgs: 12 006 boliger">`), 12006, "hjem:meta-description"},
		{"og description", html(`<meta property="og:description" content="Annonser fra meglere, 877 annonser">`), 877, "hjem:meta-description"},
	}

	chain := HjemChain()
	for _, tt := range tests {
		res := chain.Extract(tt.resp)
		if !res.Matched || res.Count != tt.want || res.Strategy != tt.strategy {
			t.Errorf("%s: got %+v, want %d via %s", tt.name, res, tt.want, tt.strategy)
		}
	}
}

func TestHjemStrategiesMissOnForeignShapes(t *testing.T) {
	shell := NewDocument(fixture(t, "hjem_empty_shell.html"))
	for _, s := range HjemChain() {
		if n, ok := s.Attempt(shell); ok {
			t.Errorf("%s should miss on an empty shell, got %d", s.Name(), n)
		}
	}
}

func TestHjemChainReportsStrategy(t *testing.T) {
	tests := []struct {
		fixture  string
		want     int
		strategy string
	}{
		{"hjem_count_api.json", 2718, "hjem:count-api"},
		{"hjem_head_count.html", 3055, "hjem:meta-head-count"},
		{"hjem_heading.html", 1482, "hjem:heading-results"},
		{"hjem_description.html", 12006, "hjem:meta-description"},
		{"hjem_ld_json.html", 877, "hjem:structured-data"},
	}

	chain := HjemChain()
	for _, tt := range tests {
		res := chain.Extract(fixture(t, tt.fixture))
		if !res.Matched || res.Count != tt.want || res.Strategy != tt.strategy {
			t.Errorf("%s: got %+v, want %d via %s", tt.fixture, res, tt.want, tt.strategy)
		}
	}
}

func TestHjemChainShortCircuits(t *testing.T) {
	// Satisfies both the count API and the heading pattern.
	both := &models.RawResponse{
		StatusCode:  200,
		ContentType: "application/json",
		Body:        []byte(`{"total": 42, "html": "<h1>7 resultater</h1>"}`),
	}

	heading := HeadingPattern{Label: "heading", Selector: "h1", Pattern: markerPattern("treff", "resultater")}
	if n, ok := heading.Attempt(NewDocument(both)); !ok || n != 7 {
		t.Fatalf("heading strategy should also match this content, got %d, %v", n, ok)
	}

	res := HjemChain().Extract(both)
	if res.Count != 42 || res.Strategy != "hjem:count-api" {
		t.Errorf("chain should stop at the count API, got %+v", res)
	}

	page := html(`<meta name="head:count" content="3055"><h1>10 treff</h1>`)
	if got := HjemChain().Count(page); got != 3055 {
		t.Errorf("meta count should win over heading, got %d", got)
	}
}

func TestHjemChainMisses(t *testing.T) {
	tests := []struct {
		name string
		resp *models.RawResponse
	}{
		{"empty content", html("")},
		{"nil response", nil},
		{"empty shell", fixture(t, "hjem_empty_shell.html")},
		{"non numeric meta", html(`<meta name="head:count" content="mange">`)},
		{"broken json", &models.RawResponse{ContentType: "application/json", Body: []byte(`{"total":`)}},
		{"negative total", &models.RawResponse{ContentType: "application/json", Body: []byte(`{"total": -5}`)}},
		{"broken ld+json", html(`<script type="application/ld+json">{nope</script>`)},
	}

	chain := HjemChain()
	for _, tt := range tests {
		res := chain.Extract(tt.resp)
		if res.Matched || res.Count != 0 {
			t.Errorf("%s: expected a miss, got %+v", tt.name, res)
		}
	}
}

func TestChainNames(t *testing.T) {
	want := []string{
		"hjem:count-api",
		"hjem:meta-head-count",
		"hjem:heading-results",
		"hjem:meta-description",
		"hjem:structured-data",
	}
	if got := HjemChain().Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("HjemChain order: got %v, want %v", got, want)
	}
}

func TestFindFieldPrefersShallowest(t *testing.T) {
	payload := decodeJSON([]byte(`{"a": {"totalCount": 1}, "total": 2}`))
	v, ok := findField(payload, "totalCount", "total")
	if !ok {
		t.Fatal("expected a field")
	}
	if n, _ := numericValue(v); n != 2 {
		t.Errorf("top-level alias should win over nested primary key, got %d", n)
	}
}
