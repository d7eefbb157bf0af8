// Package hashutil implements the two hashing domains used by the pipeline
// (§4.1): content hashing for the input/config guard, and stable group IDs.
package hashutil

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // group IDs need a compact, stable digest, not collision resistance
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// ContentHashPrefixLen is the number of hex characters kept from a content hash.
const ContentHashPrefixLen = 8

// GroupIDLen is the number of hex characters kept from a group-ID digest.
const GroupIDLen = 10

// normalizeContent strips a leading UTF-8 BOM and normalizes line endings
// and trailing whitespace so that cosmetic re-saves of an input file do not
// change its content hash.
func normalizeContent(b []byte) []byte {
	b = bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))

	lines := bytes.Split(b, []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimRight(line, " \t")
	}
	return bytes.Join(lines, []byte("\n"))
}

// ContentHash returns the 8-char hex prefix of SHA-256 over normalized content.
// Used for both the input hash and, given a canonical config serialization,
// the config hash (§4.1).
func ContentHash(b []byte) string {
	sum := sha256.Sum256(normalizeContent(b))
	return hex.EncodeToString(sum[:])[:ContentHashPrefixLen]
}

// CanonicalConfigBytes serializes an arbitrary settings mapping to a stable,
// platform-independent byte form: keys sorted, no insignificant whitespace.
// Go's encoding/json already sorts map[string]any keys when marshaling, which
// is what makes this deterministic across runs without a custom encoder.
func CanonicalConfigBytes(settings map[string]any) ([]byte, error) {
	return json.Marshal(sortedAny(settings))
}

// ConfigHash computes the config hash per §4.1 from a settings mapping.
func ConfigHash(settings map[string]any) (string, error) {
	b, err := CanonicalConfigBytes(settings)
	if err != nil {
		return "", err
	}
	return ContentHash(b), nil
}

// sortedAny recursively converts maps into a representation whose JSON
// encoding is key-order-stable; Go's map[string]any already marshals with
// sorted keys, so this mostly exists to recurse into nested maps/slices
// consistently and document the invariant at each level.
func sortedAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[k] = sortedAny(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = sortedAny(e)
		}
		return out
	default:
		return v
	}
}

// groupIDPayload is the exact JSON shape hashed for a stable group ID (§4.1):
// {members: sorted(account_ids), config_hash}, sorted keys, no whitespace.
type groupIDPayload struct {
	ConfigHash string   `json:"config_hash"`
	Members    []string `json:"members"`
}

// StableGroupID returns the first 10 hex chars of SHA-1 over the JSON of
// {members: sorted(account_ids), config_hash}. Identical membership and
// config hash always produce the same group ID, independent of the order
// members were discovered during union-find.
func StableGroupID(members []string, configHash string) string {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)

	payload := groupIDPayload{ConfigHash: configHash, Members: sorted}
	b, _ := json.Marshal(payload) // struct marshaling never fails here

	sum := sha1.Sum(b) //nolint:gosec // see package doc: stability, not collision resistance
	return hex.EncodeToString(sum[:])[:GroupIDLen]
}
