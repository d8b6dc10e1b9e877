package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"listing-counter/models"
)

// Fetcher performs exactly one GET for url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*models.RawResponse, error)
}

// FetchError is returned by a Fetcher when no usable response was obtained.
type FetchError struct {
	Kind   models.FailureKind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s failure fetching %s (status %d): %v", e.Kind, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("%s failure fetching %s: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CollyFetcher fetches over plain HTTP. Every call runs on a clone of a
// parent collector, so clones share its HTTP backend and request timeout
// but never each other's callbacks.
type CollyFetcher struct {
	collector *colly.Collector
}

// NewCollyFetcher builds a fetcher with a bounded per-request timeout.
func NewCollyFetcher(userAgent string, timeout time.Duration) *CollyFetcher {
	opts := []colly.CollectorOption{colly.AllowURLRevisit()}
	if userAgent != "" {
		opts = append(opts, colly.UserAgent(userAgent))
	}
	c := colly.NewCollector(opts...)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}
	return &CollyFetcher{collector: c}
}

// Fetch issues one GET. A failure without an HTTP status is a network
// failure; a non-2xx status or an unexpected content type is a response
// failure.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) (*models.RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Kind: models.NetworkFailure, URL: url, Err: err}
	}

	c := f.collector.Clone()
	c.Context = ctx

	var (
		resp   *models.RawResponse
		status int
	)
	c.OnResponse(func(r *colly.Response) {
		resp = &models.RawResponse{
			URL:         url,
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        r.Body,
		}
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(url); err != nil {
		kind := models.ResponseFailure
		if status == 0 {
			kind = models.NetworkFailure
		}
		return nil, &FetchError{Kind: kind, URL: url, Status: status, Err: err}
	}
	if resp == nil {
		return nil, &FetchError{Kind: models.NetworkFailure, URL: url, Err: fmt.Errorf("no response received")}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Kind: models.ResponseFailure, URL: url, Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected status")}
	}
	if !acceptedContentType(resp.ContentType) {
		return nil, &FetchError{Kind: models.ResponseFailure, URL: url, Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected content type %q", resp.ContentType)}
	}
	return resp, nil
}

// acceptedContentType admits HTML, JSON and other text bodies. A missing
// header is accepted and left to the extractor.
func acceptedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if ct == "" {
		return true
	}
	return strings.Contains(ct, "html") ||
		strings.Contains(ct, "json") ||
		strings.HasPrefix(ct, "text/")
}
