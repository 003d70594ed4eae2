package grouping

import (
	"strings"

	"github.com/ginjaninja78/position-grouper/internal/types"
)

// Search returns the items whose text fields contain query,
// case-insensitively. An empty query returns items unchanged.
func Search(items []types.LineItem, query string) []types.LineItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	var out []types.LineItem
	for _, item := range items {
		if matches(item, q) {
			out = append(out, item)
		}
	}
	return out
}

func matches(item types.LineItem, q string) bool {
	fields := []string{
		item.PositionName,
		item.UniqueKey,
		item.ID,
		item.WorkType,
		item.SalaryGoods,
		string(item.Kind),
	}
	fields = append(fields, item.Analytics[:]...)

	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
