// Copyright 2025 Certen Protocol
//
// Canonical JSON encoding used as Fiat-Shamir context material: a resolved
// ProofSpec must serialize identically on the prover and verifier side, or
// DLogPoK verification fails (spec §4.3 step 5, §8 "Context binding").
package canonical

import (
	"crypto/sha256"
	"encoding/json"
	"sort"
)

// JSON takes arbitrary JSON bytes and returns a canonical encoding with
// deterministic key ordering. A simplified RFC 8785-like approach: arrays
// retain their original order, object keys are sorted lexicographically.
func JSON(raw []byte) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(canonicalizeValue(v))
}

func canonicalizeValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make(map[string]interface{}, len(vv))
		for _, k := range keys {
			ordered[k] = canonicalizeValue(vv[k])
		}
		return ordered
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, e := range vv {
			out[i] = canonicalizeValue(e)
		}
		return out
	default:
		return vv
	}
}

// Marshal canonicalizes the JSON encoding of v.
func Marshal(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return JSON(raw)
}

// HashConcat returns SHA-256 of the concatenation of parts, used to build
// Fiat-Shamir transcript digests.
func HashConcat(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}
