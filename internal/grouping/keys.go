// =============================================================================
// Position Grouper - Grouping Keys
// =============================================================================
//
// Pure functions deriving the canonical base name and the composite grouping
// keys of a line-item.
//
// KEYS:
//   fullKey = base name + analytics8 + work type + kind   (strict grouping)
//   baseKey = base name + analytics8 + work type          (base grouping)
//
// Keys are lower-cased and joined with the ASCII unit separator, which does
// not occur in imported text.
//
// =============================================================================

package grouping

import (
	"regexp"
	"strings"

	"github.com/ginjaninja78/position-grouper/internal/types"
)

// keySeparator joins key parts.
const keySeparator = "\x1f"

// idSuffix matches the synthetic identifier appended to imported position
// names, e.g. "Rewind_ID_3f2a-09bc".
var idSuffix = regexp.MustCompile(`(?i)_ID_[a-f0-9-]+$`)

// BaseName strips a trailing "_ID_<hex>" suffix and trims whitespace.
// Names without the suffix are returned trimmed.
func BaseName(positionName string) string {
	return strings.TrimSpace(idSuffix.ReplaceAllString(positionName, ""))
}

// FullKey returns the strict grouping key of an item. Items with equal full
// keys are the same row repeated.
func FullKey(item types.LineItem) string {
	return strings.ToLower(strings.Join([]string{
		BaseName(item.PositionName),
		item.Analytics8(),
		item.WorkType,
		string(item.Kind),
	}, keySeparator))
}

// BaseKey is FullKey without the kind, so income and expense rows of the
// same conceptual position share it.
func BaseKey(item types.LineItem) string {
	return strings.ToLower(strings.Join([]string{
		BaseName(item.PositionName),
		item.Analytics8(),
		item.WorkType,
	}, keySeparator))
}
