package catalog

import (
	"sort"
	"strings"
	"sync"
)

// Index holds the full product set plus the current view filter and derives
// the visible subset on demand. An Index starts unloaded, which is distinct
// from loaded-but-empty: the HTTP layer uses Loaded to tell "no products
// matched" apart from "the catalog never arrived".
type Index struct {
	mu       sync.RWMutex
	products []Product
	byID     map[string]Product

	term     string
	category string
	loaded   bool
}

func NewIndex() *Index {
	return &Index{
		byID:     map[string]Product{},
		category: CategoryAll,
	}
}

// Load replaces the catalog wholesale. Duplicate ids are not expected from
// the source; if they occur the last record wins.
func (x *Index) Load(products []Product) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.products = make([]Product, len(products))
	copy(x.products, products)

	x.byID = make(map[string]Product, len(products))
	for _, p := range x.products {
		x.byID[p.ID] = p
	}
	x.loaded = true
}

func (x *Index) Loaded() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.loaded
}

func (x *Index) Get(id string) (Product, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	p, ok := x.byID[id]
	return p, ok
}

// DistinctCategories returns every non-empty category in the catalog,
// deduplicated and sorted ascending. The "all" sentinel is a presentation
// concern and is never included.
func (x *Index) DistinctCategories() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	seen := map[string]struct{}{}
	out := make([]string, 0, 8)
	for _, p := range x.products {
		if p.Category == "" {
			continue
		}
		if _, dup := seen[p.Category]; dup {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}

	sort.Strings(out)
	return out
}

// SetSearchTerm stores the free-text term. Trimming and case-folding happen
// here so the rest of the filter logic never re-normalizes.
func (x *Index) SetSearchTerm(term string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.term = strings.ToLower(strings.TrimSpace(term))
}

// SetCategory selects a concrete category, or CategoryAll to disable the
// category filter. An empty value means CategoryAll.
func (x *Index) SetCategory(category string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if category == "" {
		category = CategoryAll
	}
	x.category = category
}

func (x *Index) SearchTerm() string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.term
}

func (x *Index) Category() string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.category
}

// VisibleProducts applies the category filter, then the search-term filter,
// preserving catalog insertion order. It is a pure function of the catalog
// and the current filter state.
func (x *Index) VisibleProducts() []Product {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]Product, 0, len(x.products))
	for _, p := range x.products {
		if !x.matchesCategory(p) {
			continue
		}
		if !x.matchesTerm(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// matchesCategory is an exact match; a product without a category is excluded
// whenever a concrete category is selected.
func (x *Index) matchesCategory(p Product) bool {
	if x.category == CategoryAll {
		return true
	}
	return p.Category != "" && p.Category == x.category
}

// matchesTerm checks the term as a case-insensitive substring of name,
// description or category. A product without a category simply fails the
// category clause, not the whole match.
func (x *Index) matchesTerm(p Product) bool {
	if x.term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), x.term) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Description), x.term) {
		return true
	}
	return p.Category != "" && strings.Contains(strings.ToLower(p.Category), x.term)
}
