package geo

import (
	"crypto/sha256"
	"encoding/json"
	"sort"

	"github.com/btcsuite/btcutil/base58"
)

// ContentHash produces the deterministic digest of a feature's geometry and
// properties used as the system-wide uniqueness key. Two calls with
// semantically identical input (regardless of JSON key order) always produce
// the same hash.
func ContentHash(geometry json.RawMessage, properties map[string]any) string {
	var geom any
	// A geometry that fails to decode was already rejected by Parse; hashing
	// the raw bytes keeps the function total.
	if err := json.Unmarshal(geometry, &geom); err != nil {
		geom = string(geometry)
	}

	payload := canonicalJSON(geom)
	payload = append(payload, '\n')
	if properties == nil {
		payload = append(payload, []byte("null")...)
	} else {
		payload = append(payload, canonicalJSON(map[string]any(properties))...)
	}

	sum := sha256.Sum256(payload)
	return base58.Encode(sum[:])
}

// canonicalJSON produces a deterministic JSON encoding: object keys sorted,
// no insignificant whitespace.
func canonicalJSON(v any) []byte {
	switch val := v.(type) {
	case nil:
		return []byte("null")

	case bool:
		if val {
			return []byte("true")
		}
		return []byte("false")

	case float64, int, int64, string:
		b, _ := json.Marshal(val)
		return b

	case []any:
		result := []byte("[")
		for i, elem := range val {
			if i > 0 {
				result = append(result, ',')
			}
			result = append(result, canonicalJSON(elem)...)
		}
		return append(result, ']')

	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		result := []byte("{")
		for i, k := range keys {
			if i > 0 {
				result = append(result, ',')
			}
			keyJSON, _ := json.Marshal(k)
			result = append(result, keyJSON...)
			result = append(result, ':')
			result = append(result, canonicalJSON(val[k])...)
		}
		return append(result, '}')

	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return b
	}
}
