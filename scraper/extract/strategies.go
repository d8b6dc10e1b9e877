package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MetaPattern reads the content attribute of the first tag matched by one of
// Selectors and captures the digit run Pattern finds in it.
type MetaPattern struct {
	Label     string
	Selectors []string
	Pattern   *regexp.Regexp
}

func (s MetaPattern) Name() string { return s.Label }

func (s MetaPattern) Attempt(doc *Document) (int, bool) {
	html := doc.HTML()
	if html == nil {
		return 0, false
	}
	for _, sel := range s.Selectors {
		content, ok := html.Find(sel).First().Attr("content")
		if !ok {
			continue
		}
		if n, ok := countBefore(s.Pattern, content); ok {
			return n, true
		}
	}
	return 0, false
}

// MetaNumber reads a tag whose content attribute is the count itself.
type MetaNumber struct {
	Label    string
	Selector string
}

func (s MetaNumber) Name() string { return s.Label }

func (s MetaNumber) Attempt(doc *Document) (int, bool) {
	html := doc.HTML()
	if html == nil {
		return 0, false
	}
	content, ok := html.Find(s.Selector).First().Attr("content")
	if !ok {
		return 0, false
	}
	return ParseCount(content)
}

// HeadingPattern scans heading text for a digit run next to a marker word.
type HeadingPattern struct {
	Label    string
	Selector string
	Pattern  *regexp.Regexp
}

func (s HeadingPattern) Name() string { return s.Label }

func (s HeadingPattern) Attempt(doc *Document) (int, bool) {
	html := doc.HTML()
	if html == nil {
		return 0, false
	}

	var (
		count int
		found bool
	)
	html.Find(s.Selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		count, found = countBefore(s.Pattern, sel.Text())
		return !found
	})
	return count, found
}

// JSONField reads a numeric field from a JSON response body, trying each
// alias in Fields.
type JSONField struct {
	Label  string
	Fields []string
}

func (s JSONField) Name() string { return s.Label }

func (s JSONField) Attempt(doc *Document) (int, bool) {
	payload := doc.JSON()
	if payload == nil {
		return 0, false
	}
	v, ok := findField(payload, s.Fields...)
	if !ok {
		return 0, false
	}
	return numericValue(v)
}

// EmbeddedJSON decodes script blocks carrying structured data and reads a
// numeric field from the first block that has one.
type EmbeddedJSON struct {
	Label    string
	Selector string
	Fields   []string
}

func (s EmbeddedJSON) Name() string { return s.Label }

func (s EmbeddedJSON) Attempt(doc *Document) (int, bool) {
	html := doc.HTML()
	if html == nil {
		return 0, false
	}

	var (
		count int
		found bool
	)
	html.Find(s.Selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return true
		}
		payload := decodeJSON([]byte(raw))
		if payload == nil {
			return true
		}
		if v, ok := findField(payload, s.Fields...); ok {
			count, found = numericValue(v)
		}
		return !found
	})
	return count, found
}
