// Package fingerprint computes a stable digest over a record's
// comparable fields, used as a cheap change indicator before any
// field-by-field comparison is attempted.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of the field mapping.
// Fields are sorted by name before hashing, so two semantically
// identical mappings always produce the same digest regardless of the
// order the extractor emitted them in.
func Sum(fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+Canonical(fields[name]))
	}

	digest := sha256.Sum256([]byte(strings.Join(parts, "|")))

	return hex.EncodeToString(digest[:])
}

// Canonical renders a field value in its canonical string form. Values
// of the same semantic content must render identically, otherwise the
// digest stops being a reliable change indicator.
func Canonical(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}
