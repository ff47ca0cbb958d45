package model

import "time"

// Role is the authorization role stored on a user row.
type Role string

const (
    RoleCustomer Role = "CUSTOMER"
    RoleManager  Role = "MANAGER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
    return r == RoleCustomer || r == RoleManager
}

// User represents an account record as stored in the `users` table.
// PasswordHash is never serialized; handlers render users through this
// struct directly.
type User struct {
    ID           string    `json:"id"`        // users.id (UUID)
    Username     string    `json:"username"`  // users.username
    Email        string    `json:"email"`     // users.email, lower-cased, unique
    PasswordHash string    `json:"-"`         // users.password_hash (bcrypt)
    Age          int       `json:"age"`       // users.age
    Role         Role      `json:"role"`      // users.role
    CreatedAt    time.Time `json:"createdAt"` // users.created_at
    UpdatedAt    time.Time `json:"updatedAt"` // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA-256 hash.
type RefreshToken struct {
    ID        string     // refresh_tokens.id
    UserID    string     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
