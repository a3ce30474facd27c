package diff_test

import (
	"testing"

	"github.com/Houeta/book-watch/internal/diff"
	"github.com/Houeta/book-watch/internal/fingerprint"
	"github.com/Houeta/book-watch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_FastPathSkipsFieldAccess(t *testing.T) {
	t.Parallel()

	newFields := map[string]any{"title": "A", "rating": 4.0}
	hash := fingerprint.Sum(newFields)

	// The old-field callback must never fire when the hashes match.
	oldFields := func() map[string]any {
		t.Fatal("old fields were accessed on the fast path")
		return nil
	}

	result := diff.Compare(hash, oldFields, newFields, hash)

	assert.Equal(t, diff.Unchanged, result.Kind)
	assert.Empty(t, result.Diffs)
}

func TestCompare_SingleFieldChange(t *testing.T) {
	t.Parallel()

	oldFields := map[string]any{"title": "A", "rating": 4.0}
	newFields := map[string]any{"title": "B", "rating": 4.0}

	result := diff.Compare(
		fingerprint.Sum(oldFields),
		func() map[string]any { return oldFields },
		newFields,
		fingerprint.Sum(newFields),
	)

	require.Equal(t, diff.Changed, result.Kind)
	require.Len(t, result.Diffs, 1)
	assert.Equal(t, models.FieldChange{Old: "A", New: "B"}, result.Diffs["title"])
	assert.NotContains(t, result.Diffs, "rating")
	assert.False(t, result.HashOnly)
}

func TestCompare_AbsentFields(t *testing.T) {
	t.Parallel()

	oldFields := map[string]any{"title": "A", "series": "old series"}
	newFields := map[string]any{"title": "A", "isbn": "123"}

	result := diff.Compare(
		fingerprint.Sum(oldFields),
		func() map[string]any { return oldFields },
		newFields,
		fingerprint.Sum(newFields),
	)

	require.Equal(t, diff.Changed, result.Kind)
	require.Len(t, result.Diffs, 2)
	assert.Equal(t, models.FieldChange{Old: diff.Absent, New: "123"}, result.Diffs["isbn"])
	assert.Equal(t, models.FieldChange{Old: "old series", New: diff.Absent}, result.Diffs["series"])
}

func TestCompare_NumericTolerance(t *testing.T) {
	t.Parallel()

	oldFields := map[string]any{"price": 51.77, "rating": 4.0}

	t.Run("difference within tolerance is not a change", func(t *testing.T) {
		t.Parallel()

		newFields := map[string]any{"price": 51.775, "rating": 4.0}
		result := diff.Compare(
			fingerprint.Sum(oldFields),
			func() map[string]any { return oldFields },
			newFields,
			fingerprint.Sum(newFields),
		)

		// Hashes differ but the tolerance absorbs the noise, so the
		// engine honestly reports a hash-only change.
		require.Equal(t, diff.Changed, result.Kind)
		assert.Empty(t, result.Diffs)
		assert.True(t, result.HashOnly)
	})

	t.Run("difference above tolerance is a change", func(t *testing.T) {
		t.Parallel()

		newFields := map[string]any{"price": 45.17, "rating": 4.0}
		result := diff.Compare(
			fingerprint.Sum(oldFields),
			func() map[string]any { return oldFields },
			newFields,
			fingerprint.Sum(newFields),
		)

		require.Equal(t, diff.Changed, result.Kind)
		require.Len(t, result.Diffs, 1)
		assert.Equal(t, models.FieldChange{Old: 51.77, New: 45.17}, result.Diffs["price"])
	})

	t.Run("int and float of the same value are equal", func(t *testing.T) {
		t.Parallel()

		old := map[string]any{"rating": 4}
		updated := map[string]any{"rating": 4.0}
		result := diff.Compare(
			"stale-hash",
			func() map[string]any { return old },
			updated,
			fingerprint.Sum(updated),
		)

		require.Equal(t, diff.Changed, result.Kind)
		assert.Empty(t, result.Diffs)
	})
}

func TestCompare_HashOnlyChange(t *testing.T) {
	t.Parallel()

	// Identical fields, but the stored hash was computed from a
	// differently normalized rendition.
	fields := map[string]any{"title": "A", "rating": 4.0}

	result := diff.Compare(
		"hash-from-a-buggy-normalization",
		func() map[string]any { return fields },
		fields,
		fingerprint.Sum(fields),
	)

	require.Equal(t, diff.Changed, result.Kind)
	assert.Empty(t, result.Diffs)
	assert.True(t, result.HashOnly)
}

func TestCompare_WhitespaceNormalization(t *testing.T) {
	t.Parallel()

	oldFields := map[string]any{"title": " A Light in the Attic "}
	newFields := map[string]any{"title": "A Light in the Attic"}

	result := diff.Compare(
		fingerprint.Sum(oldFields),
		func() map[string]any { return oldFields },
		newFields,
		fingerprint.Sum(newFields),
	)

	// Trimming noise never produces a field diff, only a hash-only change.
	require.Equal(t, diff.Changed, result.Kind)
	assert.Empty(t, result.Diffs)
	assert.True(t, result.HashOnly)
}
