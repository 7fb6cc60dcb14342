package revision

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const revisionLength = 16

// Of returns a deterministic revision derived from the JSON encoding of v.
// Struct fields encode in declaration order and map keys are sorted, so equal
// values always produce equal revisions.
func Of(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode value for revision: %w", err)
	}
	return Bytes(raw), nil
}

// Bytes returns the revision of the concatenated parts. Each part is length
// prefixed so ("ab","c") and ("a","bc") differ.
func Bytes(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		_, _ = fmt.Fprintf(h, "%d:", len(p))
		_, _ = h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))[:revisionLength]
}
