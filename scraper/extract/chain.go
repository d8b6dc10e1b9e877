// Package extract recovers listing counts from fetched source content.
//
// Every source has an ordered chain of strategies. A strategy inspects one
// representation of the response (HTML tree, JSON payload, embedded data
// block) and either yields a count or misses. The chain returns the first
// hit; when all strategies miss the count is 0. Nothing in this package
// performs I/O or returns errors.
package extract

import "listing-counter/models"

// Strategy is one parsing rule for recovering a count.
type Strategy interface {
	Name() string
	Attempt(doc *Document) (int, bool)
}

// Result records which strategy produced the count. Matched is false when
// every strategy missed, in which case Count is 0.
type Result struct {
	Count    int
	Strategy string
	Matched  bool
}

// Chain is an ordered list of strategies folded until the first success.
type Chain []Strategy

// Extract runs the chain against resp.
func (c Chain) Extract(resp *models.RawResponse) Result {
	doc := NewDocument(resp)
	for _, s := range c {
		if n, ok := s.Attempt(doc); ok {
			return Result{Count: n, Strategy: s.Name(), Matched: true}
		}
	}
	return Result{}
}

// Count is Extract reduced to the bare count.
func (c Chain) Count(resp *models.RawResponse) int {
	return c.Extract(resp).Count
}

// Names lists the strategy names in order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name()
	}
	return names
}
