package model

import "time"

// Role is the privilege level assigned to a principal and copied into
// every token issued for it.
type Role string

const (
    RoleUser   Role = "user"
    RoleEditor Role = "editor"
    RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
    switch r {
    case RoleUser, RoleEditor, RoleAdmin:
        return true
    }
    return false
}

// User represents a principal as stored in the `users` table.  The auth
// core only reads these rows; writes belong to the user-management API.
//
// Fields:
//  ID           – primary key (UUID string).
//  Email        – unique email address, lower-cased.
//  Username     – unique login name.
//  PasswordHash – bcrypt hash, or a legacy plaintext-equivalent value that
//                 still needs migration.
//  Role         – user, editor or admin.
//  IsActive     – disabled accounts cannot log in.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           string    // users.id
    Email        string    // users.email
    Username     string    // users.username
    PasswordHash string    // users.password_hash
    Role         Role      // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
}

// PublicUser is the sanitized view returned to clients.  It never carries
// the credential.
type PublicUser struct {
    ID        string    `json:"id"`
    Email     string    `json:"email"`
    Username  string    `json:"username"`
    Role      Role      `json:"role"`
    IsActive  bool      `json:"isActive"`
    CreatedAt time.Time `json:"createdAt"`
}

// Public strips the credential from u.
func (u User) Public() PublicUser {
    return PublicUser{
        ID:        u.ID,
        Email:     u.Email,
        Username:  u.Username,
        Role:      u.Role,
        IsActive:  u.IsActive,
        CreatedAt: u.CreatedAt,
    }
}
