package access

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// KeyLength is the length of generated token secret keys in bytes.
const KeyLength = 32

// GenerateTokenKey generates a cryptographically secure random secret key
// for a new API token, independent of any caller-supplied input.
// Returns: key (hex string), key hash (SHA256 hex) for storage.
//
// The cleartext key is handed to the caller exactly once; only the hash is
// persisted.
func GenerateTokenKey() (string, string, error) {
	keyBytes := make([]byte, KeyLength)
	if _, err := rand.Read(keyBytes); err != nil {
		return "", "", fmt.Errorf("generate random key: %w", err)
	}

	key := hex.EncodeToString(keyBytes)
	return key, HashTokenKey(key), nil
}

// HashTokenKey hashes a presented secret key for storage/lookup.
// Returns SHA256 hex hash.
func HashTokenKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}
