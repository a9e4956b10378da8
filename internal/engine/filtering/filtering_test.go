package filtering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time { return base.AddDate(0, 0, n) }

func dayPtr(n int) *time.Time {
	d := day(n)
	return &d
}

func intp(v int) *int { return &v }

func fixtures() []Item {
	return []Item{
		{ID: "summer", Title: "Summer Lookbook", Company: "Aurora Apparel", Categories: []string{"Fashion"},
			Budget: "$2,000 - $5,000", Status: "active", MatchScore: 70, CreatedAt: day(1), Deadline: dayPtr(30)},
		{ID: "glow", Title: "Glow Serum Launch", Company: "Lumen Beauty", Categories: []string{"Beauty"},
			Tags: []string{"skincare"}, Budget: "10k+", Status: "active", MatchScore: 85, CreatedAt: day(3)},
		{ID: "gear", Title: "Trail Gear Review", Company: "Summit Co", Description: "outdoor fashion essentials",
			Categories: []string{"Outdoors", "Fashion"}, Budget: "negotiable", Status: "paused", MatchScore: 70,
			CreatedAt: day(5), Deadline: dayPtr(10)},
		{ID: "gaming", Title: "Controller Unboxing", Company: "Pixel Labs", Categories: []string{"Gaming"},
			Budget: "$800", Status: "active", MatchScore: 40, CreatedAt: day(2), Deadline: dayPtr(20)},
	}
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestApply_Filters(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"no filters", Filters{}, []string{"glow", "gear", "summer", "gaming"}},
		{"search title case-insensitive", Filters{Search: "SERUM"}, []string{"glow"}},
		{"search description and tags", Filters{Search: "fashion"}, []string{"gear"}},
		{"search tags", Filters{Search: "skin"}, []string{"glow"}},
		{"search company", Filters{Search: "pixel"}, []string{"gaming"}},
		{"categories any-of", Filters{Categories: []string{"fashion", "Gaming"}}, []string{"gear", "summer", "gaming"}},
		{"budget min keeps unparsable", Filters{MinBudget: intp(6000)}, []string{"glow", "gear"}},
		{"budget window", Filters{MinBudget: intp(1000), MaxBudget: intp(3000)}, []string{"gear", "summer"}},
		{"status allow-list", Filters{Statuses: []string{"PAUSED"}}, []string{"gear"}},
		{"combined with and", Filters{Categories: []string{"Fashion"}, Statuses: []string{"active"}}, []string{"summer"}},
		{"nothing matches", Filters{Search: "crypto"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(fixtures(), tt.filters, SortRelevance)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApply_SortKeys(t *testing.T) {
	tests := []struct {
		key  SortKey
		want []string
	}{
		// gear and summer tie on score; gear is newer
		{SortRelevance, []string{"glow", "gear", "summer", "gaming"}},
		{SortNewest, []string{"gear", "glow", "gaming", "summer"}},
		// glow's open range sorts by its minimum; gear is unparsable and sorts as zero
		{SortBudget, []string{"glow", "summer", "gaming", "gear"}},
		{SortDeadline, []string{"gear", "gaming", "summer", "glow"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(fixtures(), Filters{}, tt.key)))
		})
	}
}

func TestApply_BudgetOrderIsNonIncreasing(t *testing.T) {
	items := []Item{
		{ID: "a", Budget: "$1k"},
		{ID: "b", Budget: "oops"},
		{ID: "c", Budget: "$3,000-$9,000"},
		{ID: "d", Budget: ""},
		{ID: "e", Budget: "up to 4000"},
	}

	got := Apply(items, Filters{}, SortBudget)
	require.Len(t, got, len(items))
	assert.Equal(t, []string{"c", "e", "a", "b", "d"}, ids(got))
}

func TestApply_HugeBudgetSortsFirst(t *testing.T) {
	items := []Item{
		{ID: "mid", Budget: "5000"},
		{ID: "bad", Budget: "tbd"},
		{ID: "huge", Budget: "1e20"},
	}

	assert.Equal(t, []string{"huge", "mid", "bad"}, ids(Apply(items, Filters{}, SortBudget)))
	assert.Equal(t, []string{"mid", "bad", "huge"}, ids(Apply(items, Filters{MinBudget: intp(1000)}, SortNewest)))
}

func TestApply_StableForEqualKeys(t *testing.T) {
	items := []Item{
		{ID: "first", CreatedAt: day(0)},
		{ID: "second", CreatedAt: day(0)},
		{ID: "third", CreatedAt: day(0)},
	}
	assert.Equal(t, []string{"first", "second", "third"}, ids(Apply(items, Filters{}, SortNewest)))
	assert.Equal(t, []string{"first", "second", "third"}, ids(Apply(items, Filters{}, SortDeadline)))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	items := fixtures()
	before := ids(items)
	Apply(items, Filters{}, SortBudget)
	assert.Equal(t, before, ids(items))
}

func TestStream_IsRestartable(t *testing.T) {
	items := fixtures()
	seq := Stream(items, Filters{Statuses: []string{"active"}}, SortNewest)

	var first, second []string
	for it := range seq {
		first = append(first, it.ID)
	}
	for it := range seq {
		second = append(second, it.ID)
	}
	assert.Equal(t, []string{"glow", "gaming", "summer"}, first)
	assert.Equal(t, first, second)

	var taken []string
	for it := range seq {
		taken = append(taken, it.ID)
		if len(taken) == 1 {
			break
		}
	}
	assert.Equal(t, []string{"glow"}, taken)
}

func TestPaginate(t *testing.T) {
	items := Apply(fixtures(), Filters{}, SortRelevance)

	p := Paginate(items, 2, 3)
	assert.Equal(t, 4, p.Total)
	assert.Equal(t, []string{"gaming"}, ids(p.Items))

	empty := Paginate(items, 5, 3)
	assert.Empty(t, empty.Items)
	assert.NotNil(t, empty.Items)

	clamped := Paginate(items, 0, 0)
	assert.Equal(t, 1, clamped.Page)
	assert.Equal(t, 1, clamped.Size)
	assert.Equal(t, []string{"glow"}, ids(clamped.Items))
}

func TestParseSortKey(t *testing.T) {
	k, ok := ParseSortKey(" Budget ")
	assert.True(t, ok)
	assert.Equal(t, SortBudget, k)

	_, ok = ParseSortKey("popularity")
	assert.False(t, ok)
}
