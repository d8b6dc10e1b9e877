package extract

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"listing-counter/models"
)

// Document is a lazily parsed view over one fetched body. Strategies ask
// for the representation they understand; parsing happens at most once.
type Document struct {
	body        []byte
	contentType string

	htmlOnce sync.Once
	html     *goquery.Document

	jsonOnce sync.Once
	json     any
}

// NewDocument wraps a fetched response. A nil response yields an empty
// document on which every strategy misses.
func NewDocument(resp *models.RawResponse) *Document {
	if resp == nil {
		return &Document{}
	}
	return &Document{body: resp.Body, contentType: resp.ContentType}
}

// HTML returns the parsed HTML tree, or nil when the body is empty or
// unparseable.
func (d *Document) HTML() *goquery.Document {
	d.htmlOnce.Do(func() {
		if len(bytes.TrimSpace(d.body)) == 0 {
			return
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(d.body))
		if err == nil {
			d.html = doc
		}
	})
	return d.html
}

// JSON returns the decoded body when it is a JSON document, else nil.
// Numbers are kept as json.Number.
func (d *Document) JSON() any {
	d.jsonOnce.Do(func() {
		if !d.looksLikeJSON() {
			return
		}
		d.json = decodeJSON(d.body)
	})
	return d.json
}

func (d *Document) looksLikeJSON() bool {
	if strings.Contains(strings.ToLower(d.contentType), "json") {
		return true
	}
	trimmed := bytes.TrimSpace(d.body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func decodeJSON(raw []byte) any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// findField walks v breadth-first and returns the first value stored under
// one of keys. At each depth every key is tried in order across all objects
// before descending, and objects are visited in sorted key order, so the
// result does not depend on map iteration.
func findField(v any, keys ...string) (any, bool) {
	queue := []any{v}
	for len(queue) > 0 {
		for _, k := range keys {
			for _, node := range queue {
				if m, ok := node.(map[string]any); ok {
					if val, found := m[k]; found {
						return val, true
					}
				}
			}
		}

		var next []any
		for _, node := range queue {
			switch n := node.(type) {
			case map[string]any:
				names := make([]string, 0, len(n))
				for name := range n {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					next = append(next, n[name])
				}
			case []any:
				next = append(next, n...)
			}
		}
		queue = next
	}
	return nil, false
}

// numericValue converts a decoded JSON scalar into a non-negative count.
func numericValue(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil || i < 0 {
			return 0, false
		}
		return int(i), true
	case float64:
		if n < 0 || n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case string:
		return ParseCount(n)
	}
	return 0, false
}
