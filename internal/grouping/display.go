// =============================================================================
// Position Grouper - Display Ordering
// =============================================================================
//
// Grouping output carries no order across buckets. This module arranges
// aggregates for display:
//   - Position view: strict groups, sectioned by work type then base name.
//   - Pool view: groups sectioned by salary/goods category then work type.
//
// Labels and groups are ordered with locale-aware collation, so Cyrillic
// names sort the way an operator expects.
//
// =============================================================================

package grouping

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ginjaninja78/position-grouper/internal/types"
)

// Section is one labelled display bucket. Leaf sections carry Groups;
// inner sections carry Sections.
type Section struct {
	Label    string
	Groups   []types.GroupedLineItem
	Sections []Section
}

// Count returns the number of aggregates under the section.
func (s Section) Count() int {
	n := len(s.Groups)
	for _, sub := range s.Sections {
		n += sub.Count()
	}
	return n
}

// Sorter orders names for a display language.
type Sorter struct {
	tag  language.Tag
	memo *Memo
}

// NewSorter creates a Sorter for the given BCP 47 locale. Unknown locales
// fall back to Russian, the language of the imported data.
func NewSorter(locale string) Sorter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Russian
	}
	return Sorter{tag: tag}
}

// WithMemo returns a copy of the Sorter that groups through m, so a view of
// a collection that was just grouped reuses that result.
func (s Sorter) WithMemo(m *Memo) Sorter {
	s.memo = m
	return s
}

func (s Sorter) group(items []types.LineItem, mode Mode) []types.GroupedLineItem {
	if s.memo != nil {
		return s.memo.Group(items, mode)
	}
	return Group(items, mode)
}

// collator returns a fresh collator; collate.Collator is not safe for
// concurrent use.
func (s Sorter) collator() *collate.Collator {
	return collate.New(s.tag, collate.IgnoreCase)
}

// Groups sorts aggregates by position name, stable for equal names.
func (s Sorter) Groups(groups []types.GroupedLineItem) {
	c := s.collator()
	slices.SortStableFunc(groups, func(a, b types.GroupedLineItem) int {
		return c.CompareString(a.PositionName, b.PositionName)
	})
}

// Sections sorts sections by label.
func (s Sorter) Sections(sections []Section) {
	c := s.collator()
	slices.SortStableFunc(sections, func(a, b Section) int {
		return c.CompareString(a.Label, b.Label)
	})
}

// =============================================================================
// VIEWS
// =============================================================================

// PositionView groups a position's items strictly and sections them by
// work type, then by base name.
func (s Sorter) PositionView(items []types.LineItem) []Section {
	groups := s.group(items, Strict)

	byWork := sectionBy(groups, func(g types.GroupedLineItem) string { return g.WorkType })
	for i := range byWork {
		byWork[i].Sections = sectionBy(byWork[i].Groups, func(g types.GroupedLineItem) string {
			return BaseName(g.PositionName)
		})
		byWork[i].Groups = nil
		for j := range byWork[i].Sections {
			s.Groups(byWork[i].Sections[j].Groups)
		}
		s.Sections(byWork[i].Sections)
	}
	s.Sections(byWork)

	return byWork
}

// PoolView groups the pool with the given mode and sections it by
// salary/goods category, then by work type. An aggregate is filed under the
// category of its first row.
func (s Sorter) PoolView(items []types.LineItem, mode Mode) []Section {
	groups := s.group(items, mode)

	byCategory := sectionBy(groups, func(g types.GroupedLineItem) string { return g.SalaryGoods })
	for i := range byCategory {
		byCategory[i].Sections = sectionBy(byCategory[i].Groups, func(g types.GroupedLineItem) string {
			return g.WorkType
		})
		byCategory[i].Groups = nil
		for j := range byCategory[i].Sections {
			s.Groups(byCategory[i].Sections[j].Groups)
		}
		s.Sections(byCategory[i].Sections)
	}
	s.Sections(byCategory)

	return byCategory
}

// sectionBy buckets groups by label in first-encounter order.
func sectionBy(groups []types.GroupedLineItem, label func(types.GroupedLineItem) string) []Section {
	index := make(map[string]int)
	var sections []Section

	for _, g := range groups {
		l := label(g)
		i, ok := index[l]
		if !ok {
			i = len(sections)
			index[l] = i
			sections = append(sections, Section{Label: l})
		}
		sections[i].Groups = append(sections[i].Groups, g)
	}

	return sections
}
