package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const DefaultFeaturedLimit = 6

// Filters selects a subset of the catalog. Zero-valued fields are no-ops.
// The amount filter applies when AmountMax is positive.
type Filters struct {
	Category      string
	AmountMin     int
	AmountMax     int
	MinApproval   Tier
	MinPopularity Tier
	Query         string
}

// Stats is a frequency breakdown over the active catalog.
type Stats struct {
	Total          int            `json:"total"`
	ByCategory     map[string]int `json:"by_category"`
	ByApprovalRate map[string]int `json:"by_approval_rate"`
	ByPopularity   map[string]int `json:"by_popularity"`
}

// Accessor caches the upstream catalog in memory and serves filtered views
// of it. The first read triggers a load; once loaded it never refetches.
// The mutex is held across the fetch, so overlapping loads are serialized
// and readers observe either the empty or the fully loaded catalog.
type Accessor struct {
	mu     sync.Mutex
	source Source
	log    *zap.Logger

	products   []Product
	categories []string
	loaded     bool
}

func NewAccessor(source Source, log *zap.Logger) *Accessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Accessor{source: source, log: log}
}

// Load fetches the catalog document and replaces the in-memory lists. On
// any failure the accessor is reset to empty and not-loaded and the error
// is returned to the caller.
func (a *Accessor) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadLocked(ctx)
}

func (a *Accessor) loadLocked(ctx context.Context) error {
	doc, err := a.source.Fetch(ctx)
	if err != nil {
		a.products = nil
		a.categories = nil
		a.loaded = false
		a.log.Warn("catalog load failed", zap.Error(err))
		return err
	}

	a.products = doc.Products
	a.categories = doc.Categories
	a.loaded = true
	a.log.Info("catalog loaded",
		zap.Int("products", len(doc.Products)),
		zap.Int("categories", len(doc.Categories)))
	return nil
}

func (a *Accessor) ensureLoadedLocked(ctx context.Context) error {
	if a.loaded {
		return nil
	}
	return a.loadLocked(ctx)
}

// Ping reports whether the catalog is servable, loading it if needed.
func (a *Accessor) Ping(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ensureLoadedLocked(ctx)
}

// AllProducts returns every product not explicitly marked inactive.
func (a *Accessor) AllProducts(ctx context.Context) ([]Product, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	return activeProducts(a.products), nil
}

// FeaturedProducts returns up to limit active products whose popularity is
// High or better, in feed order. A non-positive limit means the default.
func (a *Accessor) FeaturedProducts(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}

	all, err := a.AllProducts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Product, 0, limit)
	for _, p := range all {
		if p.popularityTier() < TierHigh {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// ProductByID finds a product by id. A miss is not an error.
func (a *Accessor) ProductByID(ctx context.Context, id int) (Product, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoadedLocked(ctx); err != nil {
		return Product{}, false, err
	}
	for _, p := range a.products {
		if p.ID == id {
			return p, true, nil
		}
	}
	return Product{}, false, nil
}

// ProductsByCategory returns active products in the category, or all active
// products when category is empty.
func (a *Accessor) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	all, err := a.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return all, nil
	}

	out := make([]Product, 0, len(all))
	for _, p := range all {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

// FilteredProducts applies the filters in a fixed order: category, amount
// range, approval-rate threshold, popularity threshold, free-text query.
func (a *Accessor) FilteredProducts(ctx context.Context, f Filters) ([]Product, error) {
	out, err := a.ProductsByCategory(ctx, f.Category)
	if err != nil {
		return nil, err
	}

	if f.AmountMax > 0 {
		out = filter(out, func(p Product) bool {
			if p.Amount == "N/A" {
				return false
			}
			return ParseLoanAmount(p.Amount).overlaps(f.AmountMin, f.AmountMax)
		})
	}

	if f.MinApproval > TierUnknown {
		out = filter(out, func(p Product) bool { return p.approvalTier() >= f.MinApproval })
	}

	if f.MinPopularity > TierUnknown {
		out = filter(out, func(p Product) bool { return p.popularityTier() >= f.MinPopularity })
	}

	if f.Query != "" {
		out = filter(out, func(p Product) bool { return p.matchesQuery(f.Query) })
	}

	return out, nil
}

// SearchProducts is the standalone free-text search. An empty query returns
// all active products.
func (a *Accessor) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	all, err := a.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}
	return filter(all, func(p Product) bool { return p.matchesQuery(query) }), nil
}

// ProductsByPopularity returns active products at or above min. TierUnknown
// means the default threshold of High.
func (a *Accessor) ProductsByPopularity(ctx context.Context, min Tier) ([]Product, error) {
	if min == TierUnknown {
		min = TierHigh
	}

	all, err := a.AllProducts(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, func(p Product) bool { return p.popularityTier() >= min }), nil
}

// Categories returns the upstream category list as-is.
func (a *Accessor) Categories(ctx context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	return a.categories, nil
}

// ProductStats computes frequency tables over the active catalog.
func (a *Accessor) ProductStats(ctx context.Context) (Stats, error) {
	all, err := a.AllProducts(ctx)
	if err != nil {
		return Stats{}, err
	}

	s := Stats{
		Total:          len(all),
		ByCategory:     map[string]int{},
		ByApprovalRate: map[string]int{},
		ByPopularity:   map[string]int{},
	}
	for _, p := range all {
		s.ByCategory[p.Category]++
		s.ByApprovalRate[p.ApprovalRate]++
		s.ByPopularity[p.Popularity]++
	}
	return s, nil
}

func activeProducts(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

func filter(products []Product, keep func(Product) bool) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
