package models

import (
	"time"

	"github.com/uptrace/bun"
)

// APIToken is an opaque credential identifying a caller. The token itself
// carries no authorization data; all grants live in role_bindings.
//
// Only the SHA-256 hash of the secret key is stored. The cleartext key is
// returned exactly once at registration and never persisted.
type APIToken struct {
	bun.BaseModel `bun:"table:api_tokens,alias:t"`

	ID         string    `bun:"id,pk,type:uuid"`
	KeyHash    string    `bun:"key_hash,notnull,unique"`
	Descriptor string    `bun:"descriptor,notnull,unique"`
	IssuedAt   time.Time `bun:"issued_at,notnull,default:current_timestamp"`
}
