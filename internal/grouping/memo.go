package grouping

import (
	"slices"
	"sync"

	"github.com/ginjaninja78/position-grouper/internal/types"
)

// Memo caches the last Group result. Core operations never mutate a
// collection in place, so a new result is computed only when the slice
// identity (first element address and length) or the mode changes.
type Memo struct {
	mu     sync.Mutex
	first  *types.LineItem
	length int
	mode   Mode
	valid  bool
	groups []types.GroupedLineItem
	hits   int
}

// Group returns Group(items, mode), reusing the previous result when the
// input is the same collection. The returned slice is a copy; callers may
// reorder it.
func (m *Memo) Group(items []types.LineItem, mode Mode) []types.GroupedLineItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	var first *types.LineItem
	if len(items) > 0 {
		first = &items[0]
	}

	if m.valid && m.first == first && m.length == len(items) && m.mode == mode {
		m.hits++
		return slices.Clone(m.groups)
	}

	m.groups = Group(items, mode)
	m.first = first
	m.length = len(items)
	m.mode = mode
	m.valid = true

	return slices.Clone(m.groups)
}

// Reset drops the cached result.
func (m *Memo) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = false
	m.groups = nil
	m.first = nil
}
