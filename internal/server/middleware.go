package server

import (
	"errors"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rapidgeo/rapid/internal/access"
	"github.com/rapidgeo/rapid/internal/services/geodata"
)

// TokenAuthenticator resolves presented secret keys to token IDs and places
// the result on the request context. Requests without a key proceed as
// anonymous; the resolver decides what anonymous callers may see.
type TokenAuthenticator struct {
	service *geodata.Service
	// cache maps key hash -> token ID so hot credentials skip the store.
	cache *lru.Cache[string, string]
}

// NewTokenAuthenticator constructs the middleware with an LRU cache of the
// given size.
func NewTokenAuthenticator(service *geodata.Service, cacheSize int) (*TokenAuthenticator, error) {
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &TokenAuthenticator{service: service, cache: cache}, nil
}

// Middleware wraps a handler with token resolution.
func (a *TokenAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := extractKey(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		keyHash := access.HashTokenKey(key)
		if tokenID, ok := a.cache.Get(keyHash); ok {
			next.ServeHTTP(w, r.WithContext(access.SetTokenContext(r.Context(), tokenID)))
			return
		}

		token, err := a.service.Authenticate(r.Context(), key)
		if err != nil {
			if errors.Is(err, geodata.ErrNotFound) {
				// Unknown key: treat as anonymous rather than leaking that
				// the key is invalid.
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, err)
			return
		}

		a.cache.Add(keyHash, token.ID)
		next.ServeHTTP(w, r.WithContext(access.SetTokenContext(r.Context(), token.ID)))
	})
}

// extractKey reads the secret key from the token query parameter or an
// Authorization bearer header.
func extractKey(r *http.Request) string {
	if key := r.URL.Query().Get("token"); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
