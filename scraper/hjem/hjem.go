// Package hjem configures the client for hjem.no. The site is queried either
// through its search pages or, when an API endpoint is configured, through
// the JSON count API.
package hjem

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

const DefaultBaseURL = "https://hjem.no"

// PageURL builds the search page URL. Regions without a Hjem slug search
// nationwide.
func PageURL(baseURL string, region config.Region, category config.Category) (string, error) {
	if category.Hjem == "" {
		return "", fmt.Errorf("category %q has no hjem slug", category.Name)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	base := strings.TrimRight(baseURL, "/") + "/kjop/"
	if region.Hjem == "" {
		return base + url.PathEscape(category.Hjem), nil
	}
	return base + url.PathEscape(region.Hjem) + "/" + url.PathEscape(category.Hjem), nil
}

// APIURL builds the count API URL.
func APIURL(apiURL string, region config.Region, category config.Category) (string, error) {
	if category.Hjem == "" {
		return "", fmt.Errorf("category %q has no hjem slug", category.Name)
	}

	q := url.Values{}
	q.Set("category", category.Hjem)
	if region.Hjem != "" {
		q.Set("location", region.Hjem)
	}
	sep := "?"
	if strings.Contains(apiURL, "?") {
		sep = "&"
	}
	return apiURL + sep + q.Encode(), nil
}

// New returns a hjem.no client. A non-empty apiURL switches the client to
// API mode.
func New(baseURL, apiURL string, fetcher scraper.Fetcher, logger *utils.Logger) *scraper.Client {
	build := func(region config.Region, category config.Category) (string, error) {
		if apiURL != "" {
			return APIURL(apiURL, region, category)
		}
		return PageURL(baseURL, region, category)
	}
	return scraper.NewClient(models.SourceHjem, fetcher, build, extract.HjemChain(), logger)
}
