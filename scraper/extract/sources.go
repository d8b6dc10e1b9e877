package extract

// Finn search pages describe the hit count in the description meta tag,
// e.g. "Finn 4 169 boliger til salgs i Oslo".
var finnDescription = MetaPattern{
	Label:     "finn:meta-description",
	Selectors: []string{`meta[name="description"]`},
	Pattern:   markerPattern("boliger"),
}

// FinnChain returns the extraction chain for finn.no search pages.
func FinnChain() Chain {
	return Chain{finnDescription}
}

// HjemChain returns the extraction chain for hjem.no. The order reflects the
// response shapes the site has served over time, newest first.
func HjemChain() Chain {
	return Chain{
		JSONField{
			Label:  "hjem:count-api",
			Fields: []string{"totalCount", "total"},
		},
		MetaNumber{
			Label:    "hjem:meta-head-count",
			Selector: `meta[name="head:count"]`,
		},
		HeadingPattern{
			Label:    "hjem:heading-results",
			Selector: "h1, h2",
			Pattern:  markerPattern("treff", "resultater"),
		},
		MetaPattern{
			Label:     "hjem:meta-description",
			Selectors: []string{`meta[name="description"]`, `meta[property="og:description"]`},
			Pattern:   markerPattern("boliger", "annonser"),
		},
		EmbeddedJSON{
			Label:    "hjem:structured-data",
			Selector: `script[type="application/ld+json"], script#__NEXT_DATA__`,
			Fields:   []string{"numberOfItems"},
		},
	}
}
