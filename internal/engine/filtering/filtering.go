// Package filtering applies search, category, budget and status predicates to
// a candidate set and orders the survivors by a sort key.
package filtering

import (
	"cmp"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/budget"
)

// SortKey selects the ordering of a listing.
type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortNewest    SortKey = "newest"
	SortBudget    SortKey = "budget"
	SortDeadline  SortKey = "deadline"
)

// ParseSortKey accepts the known keys case-insensitively.
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortRelevance, SortNewest, SortBudget, SortDeadline:
		return k, true
	}
	return "", false
}

// Item is one candidate in a listing: an opportunity or an application,
// flattened to the fields the predicates and comparators read. Source carries
// the original record through to the caller.
type Item struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Company     string      `json:"company"`
	Description string      `json:"description"`
	Tags        []string    `json:"tags,omitempty"`
	Categories  []string    `json:"categories,omitempty"`
	Budget      string      `json:"budget"`
	Status      string      `json:"status"`
	MatchScore  int         `json:"matchScore"`
	CreatedAt   time.Time   `json:"createdAt"`
	Deadline    *time.Time  `json:"deadline,omitempty"`
	Source      interface{} `json:"source,omitempty"`
}

// Filters are combined with AND. Zero-valued fields do not filter.
type Filters struct {
	Search     string   `json:"search,omitempty"`
	Categories []string `json:"categories,omitempty"`
	MinBudget  *int     `json:"minBudget,omitempty"`
	MaxBudget  *int     `json:"maxBudget,omitempty"`
	Statuses   []string `json:"statuses,omitempty"`
}

// Matches reports whether item passes every predicate.
func (f Filters) Matches(item Item) bool {
	return f.matchesSearch(item) &&
		f.matchesCategories(item) &&
		f.matchesBudget(item) &&
		f.matchesStatus(item)
}

func (f Filters) matchesSearch(item Item) bool {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	if needle == "" {
		return true
	}
	fields := append([]string{item.Title, item.Company, item.Description}, item.Tags...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (f Filters) matchesCategories(item Item) bool {
	if len(f.Categories) == 0 {
		return true
	}
	for _, want := range f.Categories {
		for _, have := range item.Categories {
			if strings.EqualFold(strings.TrimSpace(want), strings.TrimSpace(have)) {
				return true
			}
		}
	}
	return false
}

// matchesBudget lets unparsable budgets through; they only sort as zero.
func (f Filters) matchesBudget(item Item) bool {
	if f.MinBudget == nil && f.MaxBudget == nil {
		return true
	}
	r, ok := budget.Parse(item.Budget)
	if !ok {
		return true
	}
	return r.Overlaps(f.MinBudget, f.MaxBudget)
}

func (f Filters) matchesStatus(item Item) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	return slices.ContainsFunc(f.Statuses, func(s string) bool {
		return strings.EqualFold(s, item.Status)
	})
}

// Compare returns the comparator for key. Unknown keys fall back to relevance.
func Compare(key SortKey) func(a, b Item) int {
	switch key {
	case SortNewest:
		return newestFirst
	case SortBudget:
		return func(a, b Item) int {
			return cmp.Compare(budget.UpperOf(b.Budget), budget.UpperOf(a.Budget))
		}
	case SortDeadline:
		return soonestDeadline
	default:
		return func(a, b Item) int {
			if c := cmp.Compare(b.MatchScore, a.MatchScore); c != 0 {
				return c
			}
			return newestFirst(a, b)
		}
	}
}

func newestFirst(a, b Item) int {
	return b.CreatedAt.Compare(a.CreatedAt)
}

func soonestDeadline(a, b Item) int {
	switch {
	case a.Deadline == nil && b.Deadline == nil:
		return 0
	case a.Deadline == nil:
		return 1
	case b.Deadline == nil:
		return -1
	default:
		return a.Deadline.Compare(*b.Deadline)
	}
}

// Apply filters and stably sorts a copy of items; the input is not modified.
func Apply(items []Item, filters Filters, key SortKey) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if filters.Matches(item) {
			out = append(out, item)
		}
	}
	slices.SortStableFunc(out, Compare(key))
	return out
}

// Stream is the lazy form of Apply. Nothing is computed until the sequence is
// ranged over, and each range re-evaluates against items, so one stream can be
// iterated repeatedly.
func Stream(items []Item, filters Filters, key SortKey) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, item := range Apply(items, filters, key) {
			if !yield(item) {
				return
			}
		}
	}
}

// Page is one window over an ordered listing.
type Page struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Size  int    `json:"size"`
}

// Paginate slices a 1-based page out of items. Out-of-range pages are empty.
func Paginate(items []Item, page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	p := Page{Items: []Item{}, Total: len(items), Page: page, Size: size}

	start := (page - 1) * size
	if start >= len(items) {
		return p
	}
	end := min(start+size, len(items))
	p.Items = items[start:end]
	return p
}
