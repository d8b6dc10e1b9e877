package scraper

import (
	"context"
	"errors"
	"fmt"

	"listing-counter/config"
	"listing-counter/models"
	"listing-counter/scraper/extract"
	"listing-counter/utils"
)

// URLBuilder derives the query URL for a (region, category) pair.
type URLBuilder func(region config.Region, category config.Category) (string, error)

// Client queries one listing site. It owns the site's URL scheme and
// extractor chain; the transport is shared.
type Client struct {
	source  models.Source
	fetcher Fetcher
	build   URLBuilder
	chain   extract.Chain
	logger  *utils.Logger
}

// NewClient wires a source client.
func NewClient(source models.Source, fetcher Fetcher, build URLBuilder, chain extract.Chain, logger *utils.Logger) *Client {
	return &Client{
		source:  source,
		fetcher: fetcher,
		build:   build,
		chain:   chain,
		logger:  logger.With("source", string(source)),
	}
}

// Source names the site this client queries.
func (c *Client) Source() models.Source { return c.source }

// URL returns the query URL for the pair.
func (c *Client) URL(region config.Region, category config.Category) (string, error) {
	return c.build(region, category)
}

// Fetch retrieves the raw content for the pair with a single request.
func (c *Client) Fetch(ctx context.Context, region config.Region, category config.Category) (*models.RawResponse, error) {
	url, err := c.build(region, category)
	if err != nil {
		return nil, &FetchError{Kind: models.ConfigFailure, Err: fmt.Errorf("build url: %w", err)}
	}
	return c.fetcher.Fetch(ctx, url)
}

// Count fetches and extracts the listing count for the pair. It never fails:
// every fetch or extraction failure is logged and reported as a zero count
// with the failure kind set.
func (c *Client) Count(ctx context.Context, region config.Region, category config.Category) models.CountResult {
	log := c.logger.With("region", region.Name, "category", category.Name)

	resp, err := c.Fetch(ctx, region, category)
	if err != nil {
		kind := models.NetworkFailure
		url := ""
		var fe *FetchError
		if errors.As(err, &fe) {
			kind = fe.Kind
			url = fe.URL
		}
		log.With("url", url, "kind", string(kind)).
			Warn("[%s] %s/%s fetch failed: %v", c.source, region.Name, category.Name, err)
		return models.CountResult{Source: c.source, Failure: kind, Err: err}
	}

	res := c.chain.Extract(resp)
	if !res.Matched {
		log.With("url", resp.URL, "kind", string(models.ExtractionMiss)).
			Warn("[%s] %s/%s no strategy matched (%d bytes)", c.source, region.Name, category.Name, len(resp.Body))
		return models.CountResult{Source: c.source, Failure: models.ExtractionMiss}
	}

	log.Debug("[%s] %s/%s = %d via %s", c.source, region.Name, category.Name, res.Count, res.Strategy)
	return models.CountResult{Source: c.source, Count: res.Count, Strategy: res.Strategy}
}
