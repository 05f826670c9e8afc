package viewmodel

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"multibagger/models"
)

// Sort keys
const (
	SortComposite = "composite_score"
	SortUpside    = "upside"
	SortRisk      = "risk"
	SortRank      = "rank"
)

// RiskAll disables the risk filter
const RiskAll = "all"

// SortKeys lists the accepted sort keys
var SortKeys = []string{SortComposite, SortUpside, SortRisk, SortRank}

// Filter selects and orders the visible recommendations
type Filter struct {
	Search string `json:"search"`
	Sort   string `json:"sort"`
	Risk   string `json:"risk"`
}

// DefaultFilter shows everything ordered by composite score
func DefaultFilter() Filter {
	return Filter{Sort: SortComposite, Risk: RiskAll}
}

// Matches reports whether rec passes the search and risk filters
func (f Filter) Matches(rec models.Recommendation) bool {
	if q := strings.ToLower(f.Search); q != "" {
		if !strings.Contains(strings.ToLower(rec.Ticker), q) &&
			!strings.Contains(strings.ToLower(rec.CompanyName), q) {
			return false
		}
	}
	if f.Risk != "" && !strings.EqualFold(f.Risk, RiskAll) && !strings.EqualFold(rec.RiskLevel, f.Risk) {
		return false
	}
	return true
}

// compare orders two recommendations by the filter's sort key. Unknown keys
// order by rank.
func (f Filter) compare(a, b models.Recommendation) int {
	switch f.Sort {
	case SortComposite:
		return cmp.Compare(b.CompositeScore, a.CompositeScore)
	case SortUpside:
		return cmp.Compare(b.Upside(), a.Upside())
	case SortRisk:
		return cmp.Compare(a.RiskOrder(), b.RiskOrder())
	default:
		return cmp.Compare(a.Rank, b.Rank)
	}
}

// Derive returns the recommendations that pass f, sorted by f. Ties keep the
// input order. recs is not modified.
func Derive(recs []models.Recommendation, f Filter) []models.Recommendation {
	out := make([]models.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	slices.SortStableFunc(out, f.compare)
	return out
}

// Item is one visible recommendation with its per-ticker UI state
type Item struct {
	models.Recommendation
	Expanded bool `json:"expanded"`
	Selected bool `json:"selected"`
}

// Model tracks the filter and the expanded and selected tickers. It never
// changes recommendation data.
type Model struct {
	mu       sync.RWMutex
	filter   Filter
	expanded map[string]struct{}
	selected map[string]struct{}
}

// New creates a model with the default filter and nothing expanded or selected
func New() *Model {
	return &Model{
		filter:   DefaultFilter(),
		expanded: make(map[string]struct{}),
		selected: make(map[string]struct{}),
	}
}

// Filter returns the current filter
func (m *Model) Filter() Filter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter
}

// SetFilter replaces the current filter. Empty sort and risk fall back to
// their defaults.
func (m *Model) SetFilter(f Filter) {
	if f.Sort == "" {
		f.Sort = SortComposite
	}
	if f.Risk == "" || strings.EqualFold(f.Risk, RiskAll) {
		f.Risk = RiskAll
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = f
}

// View derives the visible list from recs under the current filter
func (m *Model) View(recs []models.Recommendation) []Item {
	m.mu.RLock()
	defer m.mu.RUnlock()

	visible := Derive(recs, m.filter)
	items := make([]Item, len(visible))
	for i, rec := range visible {
		_, expanded := m.expanded[rec.Ticker]
		_, selected := m.selected[rec.Ticker]
		items[i] = Item{Recommendation: rec, Expanded: expanded, Selected: selected}
	}
	return items
}

// ToggleExpand flips the expansion of ticker and returns the new state
func (m *Model) ToggleExpand(ticker string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return toggle(m.expanded, ticker)
}

// ToggleSelect flips the selection of ticker and returns the new state
func (m *Model) ToggleSelect(ticker string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return toggle(m.selected, ticker)
}

// SetSelected selects or deselects ticker
func (m *Model) SetSelected(ticker string, selected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if selected {
		m.selected[ticker] = struct{}{}
	} else {
		delete(m.selected, ticker)
	}
}

// ClearSelection deselects every ticker
func (m *Model) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.selected)
}

func (m *Model) IsExpanded(ticker string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.expanded[ticker]
	return ok
}

func (m *Model) IsSelected(ticker string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.selected[ticker]
	return ok
}

// Expanded returns the expanded tickers in sorted order
func (m *Model) Expanded() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return keys(m.expanded)
}

// Selected returns the selected tickers in sorted order
func (m *Model) Selected() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return keys(m.selected)
}

// SelectedRecommendations returns the selected entries of recs in recs order.
// Selected tickers missing from recs are ignored.
func (m *Model) SelectedRecommendations(recs []models.Recommendation) []models.Recommendation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Recommendation, 0, len(m.selected))
	for _, rec := range recs {
		if _, ok := m.selected[rec.Ticker]; ok {
			out = append(out, rec)
		}
	}
	return out
}

func toggle(set map[string]struct{}, key string) bool {
	if _, ok := set[key]; ok {
		delete(set, key)
		return false
	}
	set[key] = struct{}{}
	return true
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
