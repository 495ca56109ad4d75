// Package fingerprint computes the content hashes used as cache keys across
// the pipeline. A fingerprint covers a phase's exact inputs plus the
// configuration subset that influences its output, so equal fingerprints
// guarantee byte-identical recomputation.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Hash canonicalizes each part as JSON (map keys sorted, per encoding/json)
// and returns the hex SHA-256 of the concatenation. Part order matters;
// callers pass inputs in declaration order so fingerprints stay stable.
func Hash(parts ...any) (string, error) {
	h := sha256.New()
	for i, part := range parts {
		encoded, err := json.Marshal(part)
		if err != nil {
			return "", fmt.Errorf("fingerprint part %d: %w", i, err)
		}
		h.Write(encoded)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashStrings fingerprints an unordered string set deterministically.
func HashStrings(values []string) string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	h := sha256.New()
	for _, v := range sorted {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Short returns a 12-character prefix for log lines and directory names.
func Short(fp string) string {
	if len(fp) <= 12 {
		return fp
	}
	return fp[:12]
}
