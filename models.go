package users

import (
	"time"

	"github.com/uptrace/bun"
)

// Sentinel values that mark a soft-deleted user. The row is kept, the
// credentials row is removed, and these literals replace the identity fields.
const (
	DeletedUserName  = "(deleted)"
	DeletedUserEmail = "null"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID             int64        `bun:"id,pk,autoincrement" json:"id"`
	Name           string       `bun:"name,notnull" json:"name"`
	Email          string       `bun:"email,notnull,unique" json:"email"`
	IsAdmin        bool         `bun:"is_admin,notnull,default:false" json:"is_admin"`
	EmailConfirmed bool         `bun:"email_confirmed,notnull,default:false" json:"email_confirmed"`
	CredentialsID  *int64       `bun:"credentials_id,nullzero" json:"credentials_id,omitempty"`
	Credentials    *Credentials `bun:"rel:belongs-to,join:credentials_id=id" json:"credentials,omitempty"`
	CreatedAt      time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time    `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// IsDeleted reports whether the record carries the soft-delete sentinels.
func (u *User) IsDeleted() bool {
	if u == nil {
		return false
	}
	return u.Name == DeletedUserName && u.Email == DeletedUserEmail
}

// CanAuthenticate reports whether the user still has a credentials row. A
// soft-deleted user keeps its row but can never log in again.
func (u *User) CanAuthenticate() bool {
	return u != nil && u.Email != DeletedUserEmail && u.CredentialsID != nil
}

// Credentials holds the one-way password hash owned by a single user. The
// row is created atomically with its user and dropped on soft delete.
type Credentials struct {
	bun.BaseModel `bun:"table:credentials,alias:cred"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Hash string `bun:"hash,notnull" json:"-"`
}
