package models

import "time"

// Source identifies one of the two listing sites.
type Source string

const (
	SourceFinn Source = "finn"
	SourceHjem Source = "hjem"
)

// DateLayout is the on-disk format of Record.Date.
const DateLayout = "2006-01-02"

// FailureKind classifies why a source produced no count. ResponseFailure
// covers both non-2xx statuses and content types the extractors cannot read.
// ConfigFailure means no query URL could be built for the pair, so no
// request was sent. InternalFailure is a recovered panic in a source client.
type FailureKind string

const (
	FailureNone     FailureKind = ""
	NetworkFailure  FailureKind = "network"
	ResponseFailure FailureKind = "response"
	ExtractionMiss  FailureKind = "extraction_miss"
	ConfigFailure   FailureKind = "config"
	InternalFailure FailureKind = "internal"
)

// RawResponse is the fetched content for one (region, category) query,
// handed unchanged to the extractor chain.
type RawResponse struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// CountResult is the outcome of one extraction attempt against one source.
//
// A failed attempt carries Count == 0 and a non-empty Failure. Downstream
// consumers only ever see the count, so a zero in the series means
// "zero or unknown"; the two are not distinguished once persisted.
type CountResult struct {
	Source   Source
	Count    int
	Strategy string
	Failure  FailureKind
	Err      error
}

// OK reports whether the count came from a successful extraction.
func (r CountResult) OK() bool {
	return r.Failure == FailureNone
}

// Record is one persisted observation for a (region, category) pair.
// Total is fixed at combination time and never recomputed.
type Record struct {
	Date     time.Time `json:"date"`
	City     string    `json:"city"`
	Category string    `json:"category"`
	Finn     int       `json:"finn"`
	Hjem     int       `json:"hjem"`
	Total    int       `json:"total"`
}

// DateString returns the record date as an ISO-8601 calendar date.
func (r Record) DateString() string {
	return r.Date.Format(DateLayout)
}

// DateOf truncates t to its calendar day in t's own location and returns
// that day at midnight UTC, so dates compare equal regardless of zone.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DailyPoint holds the per-date sums for one region.
type DailyPoint struct {
	Date  time.Time
	Finn  int
	Hjem  int
	Total int
}

// Chart is the series shape consumed by the chart view.
type Chart struct {
	Region string   `json:"region"`
	Dates  []string `json:"dates"`
	Finn   []int    `json:"finn"`
	Hjem   []int    `json:"hjem"`
	Total  []int    `json:"total"`
}

// CycleSummary aggregates one collection cycle for reporting.
type CycleSummary struct {
	Records    int
	FinnTotal  int
	HjemTotal  int
	GrandTotal int
	FinnMisses int
	HjemMisses int
	ByRegion   map[string]int
	ZeroPairs  []string
}
