package userbus

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/types/role"
)

// User is a person who can sign in to the panel. Placeholder users created by
// team invitations have no password hash until they register.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        mail.Address
	Role         role.Role
	PasswordHash []byte
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Placeholder reports whether the user was created by an invitation and never
// registered.
func (u User) Placeholder() bool {
	return len(u.PasswordHash) == 0
}

// NewUser contains information needed to create a new user.
type NewUser struct {
	Name     string
	Email    mail.Address
	Role     role.Role
	Password string
}

// UpdateUser contains information needed to update a user.
type UpdateUser struct {
	Name     *string
	Role     *role.Role
	Password *string
	Enabled  *bool
}
