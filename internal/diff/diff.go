// Package diff compares a stored record against freshly extracted data.
// It fast-paths on fingerprint equality and falls back to a
// field-by-field comparison only when the fingerprints differ.
package diff

import (
	"math"
	"strings"

	"github.com/Houeta/book-watch/internal/fingerprint"
	"github.com/Houeta/book-watch/internal/models"
)

// Absent marks a field present on only one side of the comparison.
// Fields added or removed entirely are never silently dropped from the
// diff map.
const Absent = "(absent)"

// numericTolerance is the largest numeric difference still treated as
// equal, to absorb float formatting noise in the source data.
const numericTolerance = 0.01

// Kind is the outcome of a comparison.
type Kind int

const (
	// Unchanged means the fingerprints matched; no field was inspected.
	Unchanged Kind = iota
	// Changed means the fingerprints differed; Diffs holds the
	// per-field changes.
	Changed
)

// Result is the outcome of Compare.
type Result struct {
	Kind  Kind
	Diffs map[string]models.FieldChange
	// HashOnly is set on a Changed result whose field-by-field pass
	// found no difference. That combination points at a normalization
	// bug in the extractor and is surfaced rather than suppressed.
	HashOnly bool
}

// Compare decides whether newFields differ from the stored record.
// oldHash is the stored content hash and newHash the fingerprint of
// newFields, both computed by the caller. oldFields is only invoked
// when the fast path fails, keeping the common unchanged case free of
// any per-field work.
func Compare(oldHash string, oldFields func() map[string]any, newFields map[string]any, newHash string) Result {
	if newHash == oldHash {
		return Result{Kind: Unchanged}
	}

	old := oldFields()
	diffs := make(map[string]models.FieldChange)

	for name, newValue := range newFields {
		oldValue, found := old[name]
		if !found {
			diffs[name] = models.FieldChange{Old: Absent, New: newValue}
			continue
		}
		if !equalValues(oldValue, newValue) {
			diffs[name] = models.FieldChange{Old: oldValue, New: newValue}
		}
	}

	for name, oldValue := range old {
		if _, found := newFields[name]; !found {
			diffs[name] = models.FieldChange{Old: oldValue, New: Absent}
		}
	}

	return Result{Kind: Changed, Diffs: diffs, HashOnly: len(diffs) == 0}
}

// equalValues compares two field values, applying the numeric tolerance
// when both sides are numbers and a trimmed string comparison otherwise.
func equalValues(oldValue, newValue any) bool {
	oldNum, oldOk := asFloat(oldValue)
	newNum, newOk := asFloat(newValue)
	if oldOk && newOk {
		return math.Abs(oldNum-newNum) <= numericTolerance
	}

	return strings.TrimSpace(fingerprint.Canonical(oldValue)) == strings.TrimSpace(fingerprint.Canonical(newValue))
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
