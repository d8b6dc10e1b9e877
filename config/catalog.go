package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

// ErrInvalidCatalog is returned when a region or category set is empty or
// has blank or duplicate names.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Region is a named administrative area. An empty locator means the source
// is queried without a location filter.
type Region struct {
	Name string `yaml:"name"`
	Finn string `yaml:"finn"`
	Hjem string `yaml:"hjem"`
}

// Category is a property-type filter.
type Category struct {
	Name string `yaml:"name"`
	Finn string `yaml:"finn"`
	Hjem string `yaml:"hjem"`
}

// Catalog is the fixed, ordered set of regions and categories a collection
// cycle iterates over. It is immutable once built.
type Catalog struct {
	regions    []Region
	categories []Category
	regionIdx  map[string]int
	catIdx     map[string]int
}

// NewCatalog validates and copies the given sets.
func NewCatalog(regions []Region, categories []Category) (*Catalog, error) {
	if len(regions) == 0 || len(categories) == 0 {
		return nil, fmt.Errorf("%w: need at least one region and one category", ErrInvalidCatalog)
	}

	c := &Catalog{
		regions:    make([]Region, len(regions)),
		categories: make([]Category, len(categories)),
		regionIdx:  make(map[string]int, len(regions)),
		catIdx:     make(map[string]int, len(categories)),
	}
	copy(c.regions, regions)
	copy(c.categories, categories)

	for i, r := range c.regions {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: region #%d has no name", ErrInvalidCatalog, i+1)
		}
		if _, dup := c.regionIdx[name]; dup {
			return nil, fmt.Errorf("%w: duplicate region %q", ErrInvalidCatalog, name)
		}
		c.regions[i].Name = name
		c.regionIdx[name] = i
	}
	for i, cat := range c.categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category #%d has no name", ErrInvalidCatalog, i+1)
		}
		if _, dup := c.catIdx[name]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidCatalog, name)
		}
		c.categories[i].Name = name
		c.catIdx[name] = i
	}
	return c, nil
}

// Regions returns the regions in iteration order.
func (c *Catalog) Regions() []Region {
	out := make([]Region, len(c.regions))
	copy(out, c.regions)
	return out
}

// Categories returns the categories in iteration order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// RegionNames returns the region display names in iteration order.
func (c *Catalog) RegionNames() []string {
	names := make([]string, len(c.regions))
	for i, r := range c.regions {
		names[i] = r.Name
	}
	return names
}

func (c *Catalog) Region(name string) (Region, bool) {
	i, ok := c.regionIdx[name]
	if !ok {
		return Region{}, false
	}
	return c.regions[i], true
}

func (c *Catalog) Category(name string) (Category, bool) {
	i, ok := c.catIdx[name]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

// Pairs returns the number of (region, category) pairs in one cycle.
func (c *Catalog) Pairs() int {
	return len(c.regions) * len(c.categories)
}

// DefaultCatalog returns the built-in regions and categories. Hjem slugs are
// derived from the region names; the nationwide region has no locators.
func DefaultCatalog() *Catalog {
	regions := []Region{
		{Name: "Norge"},
		namedRegion("Oslo", "0.20061"),
		namedRegion("Agder", "0.22042"),
		namedRegion("Akershus", "0.20003"),
		namedRegion("Møre og Romsdal", "0.20015"),
		namedRegion("Trøndelag", "0.20016"),
	}
	categories := []Category{
		{Name: "leiligheter", Finn: "1", Hjem: "leilighet"},
		{Name: "eneboliger", Finn: "2", Hjem: "enebolig"},
		{Name: "tomter", Finn: "3", Hjem: "tomt"},
	}

	c, err := NewCatalog(regions, categories)
	if err != nil {
		panic(err)
	}
	return c
}

func namedRegion(name, finnCode string) Region {
	return Region{Name: name, Finn: finnCode, Hjem: Slugify(name)}
}

type catalogFile struct {
	Regions    []Region   `yaml:"regions"`
	Categories []Category `yaml:"categories"`
}

// LoadCatalog reads a YAML catalog file. An empty path yields DefaultCatalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", path, err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes a YAML catalog document. A region may ask for a Hjem
// slug derived from its name with `hjem: auto`.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}

	for i, r := range f.Regions {
		if strings.EqualFold(r.Hjem, "auto") {
			f.Regions[i].Hjem = Slugify(r.Name)
		}
	}
	return NewCatalog(f.Regions, f.Categories)
}

var slugReplacer = strings.NewReplacer(
	"æ", "ae",
	"ø", "o",
	"å", "a",
	" ", "-",
	"_", "-",
)

// Slugify turns a Norwegian region name into a URL path segment:
// "Møre og Romsdal" becomes "more-og-romsdal".
func Slugify(name string) string {
	s := cases.Lower(language.Norwegian).String(strings.TrimSpace(name))
	s = slugReplacer.Replace(s)

	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		case r == '-':
			if !lastDash && b.Len() > 0 {
				b.WriteRune(r)
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
