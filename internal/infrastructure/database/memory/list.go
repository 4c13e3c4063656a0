package memory

import (
	"sort"
	"strings"

	"github.com/your-org/storefront/internal/pkg/pagination"
)

// comparators map a sort column to a three-way comparison
type comparators[T any] map[string]func(a, b *T) int

// page sorts rows by the requested column, falling back to fallback, and cuts the requested page
func page[T any](rows []T, req pagination.Request, cmp comparators[T], fallback string) []T {
	by, ok := cmp[req.SortBy]
	if !ok {
		by = cmp[fallback]
	}
	desc := strings.EqualFold(req.SortOrder, "desc")
	sort.SliceStable(rows, func(i, j int) bool {
		c := by(&rows[i], &rows[j])
		if desc {
			return c > 0
		}
		return c < 0
	})

	offset := req.Offset()
	if offset >= len(rows) {
		return []T{}
	}
	end := len(rows)
	if req.Limit > 0 && offset+req.Limit < end {
		end = offset + req.Limit
	}
	return rows[offset:end]
}

func compareUint(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortedKeys returns map keys in insertion (id) order
func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
