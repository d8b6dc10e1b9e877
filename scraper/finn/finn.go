// Package finn configures the client for finn.no real-estate search.
package finn

import (
	"fmt"
	"net/url"
	"strings"

	"listing-counter/config"
	"listing-counter/models"
	"listing-counter/scraper"
	"listing-counter/scraper/extract"
	"listing-counter/utils"
)

const DefaultBaseURL = "https://www.finn.no"

// SearchURL builds the search page URL. Regions without a Finn locator
// search nationwide.
func SearchURL(baseURL string, region config.Region, category config.Category) (string, error) {
	if category.Finn == "" {
		return "", fmt.Errorf("category %q has no finn property type", category.Name)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	q := url.Values{}
	q.Set("property_type", category.Finn)
	if region.Finn != "" {
		q.Set("location", region.Finn)
	}
	return strings.TrimRight(baseURL, "/") + "/realestate/homes/search.html?" + q.Encode(), nil
}

// New returns a finn.no client using fetcher for transport.
func New(baseURL string, fetcher scraper.Fetcher, logger *utils.Logger) *scraper.Client {
	build := func(region config.Region, category config.Category) (string, error) {
		return SearchURL(baseURL, region, category)
	}
	return scraper.NewClient(models.SourceFinn, fetcher, build, extract.FinnChain(), logger)
}
