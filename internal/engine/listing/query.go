package listing

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/filtering"
)

const DefaultPageSize = 20

// Query is a parsed listing request.
type Query struct {
	Filters  filtering.Filters `json:"filters"`
	SortBy   filtering.SortKey `json:"sortBy"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// ParseQuery turns loosely typed request values into a Query. Values may be
// JSON-decoded (numbers, arrays) or raw strings from a URL, where lists are
// comma-separated. Categories and statuses are trimmed and de-duplicated.
func ParseQuery(raw map[string]interface{}, defaultSort filtering.SortKey, maxPageSize int) (Query, error) {
	q := Query{SortBy: defaultSort, Page: 1, PageSize: DefaultPageSize}
	if maxPageSize > 0 {
		q.PageSize = min(q.PageSize, maxPageSize)
	}

	if v, ok := raw["search"]; ok {
		s, ok := v.(string)
		if !ok {
			return q, apperrors.NewValidationError("search: must be a string")
		}
		q.Filters.Search = strings.TrimSpace(s)
	}

	var err error
	if q.Filters.Categories, err = stringList(raw, "categories"); err != nil {
		return q, err
	}
	if q.Filters.Statuses, err = stringList(raw, "statuses"); err != nil {
		return q, err
	}
	if q.Filters.MinBudget, err = optionalInt(raw, "minBudget"); err != nil {
		return q, err
	}
	if q.Filters.MaxBudget, err = optionalInt(raw, "maxBudget"); err != nil {
		return q, err
	}
	if lo, hi := q.Filters.MinBudget, q.Filters.MaxBudget; lo != nil && hi != nil && *lo > *hi {
		return q, apperrors.NewValidationError("minBudget: must not exceed maxBudget")
	}
	for _, b := range []*int{q.Filters.MinBudget, q.Filters.MaxBudget} {
		if b != nil && *b < 0 {
			return q, apperrors.NewValidationError("budget bounds must be non-negative")
		}
	}

	if v, ok := raw["sortBy"]; ok {
		s, _ := v.(string)
		key, ok := filtering.ParseSortKey(s)
		if !ok {
			return q, apperrors.NewValidationError(fmt.Sprintf("sortBy: unknown sort key %q", s))
		}
		q.SortBy = key
	}

	if page, err := optionalInt(raw, "page"); err != nil {
		return q, err
	} else if page != nil {
		if *page < 1 {
			return q, apperrors.NewValidationError("page: must be at least 1")
		}
		q.Page = *page
	}

	if size, err := optionalInt(raw, "pageSize"); err != nil {
		return q, err
	} else if size != nil {
		if *size < 1 || (maxPageSize > 0 && *size > maxPageSize) {
			return q, apperrors.NewValidationError(fmt.Sprintf("pageSize: must be between 1 and %d", maxPageSize))
		}
		q.PageSize = *size
	}

	return q, nil
}

func stringList(raw map[string]interface{}, key string) ([]string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}

	var parts []string
	switch t := v.(type) {
	case string:
		parts = strings.Split(t, ",")
	case []string:
		parts = t
	case []interface{}:
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, apperrors.NewValidationError(key + ": must contain only strings")
			}
			parts = append(parts, s)
		}
	default:
		return nil, apperrors.NewValidationError(key + ": must be a list of strings")
	}

	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || slices.ContainsFunc(out, func(s string) bool { return strings.EqualFold(s, p) }) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func optionalInt(raw map[string]interface{}, key string) (*int, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}

	var n int
	switch t := v.(type) {
	case int:
		n = t
	case int64:
		n = int(t)
	case float64:
		if t != float64(int(t)) {
			return nil, apperrors.NewValidationError(key + ": must be a whole number")
		}
		n = int(t)
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return nil, apperrors.NewValidationError(key + ": must be a whole number")
		}
		n = int(i)
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return nil, apperrors.NewValidationError(key + ": must be a whole number")
		}
		n = i
	default:
		return nil, apperrors.NewValidationError(key + ": must be a number")
	}
	return &n, nil
}
