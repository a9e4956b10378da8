// internal/workers/listing/parse-listing-filters/handler_test.go
package parselistingfilters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"
	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/filtering"
)

func newHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(config.WorkerConfig{}, config.EngineConfig{ListingMaxPageSize: 50}), nil, logger.NewTestLogger(t))
}

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(config.WorkerConfig{}, config.EngineConfig{})
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 100, cfg.MaxPageSize)
}

func TestHandler_Execute_Defaults(t *testing.T) {
	h := newHandler(t)

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	q := out.ListingQuery
	assert.Equal(t, filtering.SortRelevance, q.SortBy)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.PageSize)
	assert.Empty(t, q.Filters.Categories)
	assert.Nil(t, q.Filters.MinBudget)
}

func TestHandler_Execute_Normalises(t *testing.T) {
	h := newHandler(t)

	out, err := h.Execute(context.Background(), &Input{RawFilters: map[string]interface{}{
		"search":     "  spring ",
		"categories": []interface{}{" Fashion", "fashion", "Beauty", ""},
		"minBudget":  float64(1000),
		"maxBudget":  float64(5000),
		"sortBy":     "deadline",
		"page":       float64(2),
		"pageSize":   float64(10),
		"unknownKey": true,
	}})
	require.NoError(t, err)

	q := out.ListingQuery
	assert.Equal(t, "spring", q.Filters.Search)
	assert.Equal(t, []string{"Fashion", "Beauty"}, q.Filters.Categories)
	require.NotNil(t, q.Filters.MinBudget)
	assert.Equal(t, 1000, *q.Filters.MinBudget)
	assert.Equal(t, 5000, *q.Filters.MaxBudget)
	assert.Equal(t, filtering.SortDeadline, q.SortBy)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 10, q.PageSize)
}

func TestHandler_Execute_Rejects(t *testing.T) {
	h := newHandler(t)

	tests := []struct {
		name string
		raw  map[string]interface{}
	}{
		{"page zero", map[string]interface{}{"page": float64(0)}},
		{"page size above limit", map[string]interface{}{"pageSize": float64(51)}},
		{"inverted budget", map[string]interface{}{"minBudget": float64(10), "maxBudget": float64(5)}},
		{"unknown sort", map[string]interface{}{"sortBy": "random"}},
		{"categories not a list", map[string]interface{}{"categories": float64(3)}},
		{"negative budget", map[string]interface{}{"minBudget": float64(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Execute(context.Background(), &Input{RawFilters: tt.raw})
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
		})
	}
}
