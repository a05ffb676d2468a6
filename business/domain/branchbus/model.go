package branchbus

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/types/phone"
)

// Branch represents a swim academy unit, the tenant of the panel.
type Branch struct {
	ID           uuid.UUID
	IDBranch     int64
	Slug         string
	InviteCode   string
	BranchCode   string
	Name         string
	Profile      Profile
	Subscription subscriptionbus.Subscription
	CreatorID    uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile holds the descriptive data of a branch.
type Profile struct {
	InternalName string
	CNPJ         string
	Address      string
	Neighborhood string
	Number       string
	Complement   string
	City         string
	State        string
	StateShort   string
	ZipCode      string
	Telephone    phone.Null
	Whatsapp     phone.Null
	Email        string
	Website      string
	Latitude     *float64
	Longitude    *float64
	LogoURL      string
	OpeningDate  *time.Time
}

// NewBranch contains information needed to create a new branch.
type NewBranch struct {
	Name      string
	CreatorID uuid.UUID
	Profile   Profile
}

// UpdateBranch contains information needed to update a branch. Coordinates
// use sql.Null so a caller can clear them.
type UpdateBranch struct {
	Name         *string
	InternalName *string
	CNPJ         *string
	Address      *string
	Neighborhood *string
	Number       *string
	Complement   *string
	City         *string
	State        *string
	StateShort   *string
	ZipCode      *string
	Telephone    *phone.Null
	Whatsapp     *phone.Null
	Email        *string
	Website      *string
	Latitude     *sql.Null[float64]
	Longitude    *sql.Null[float64]
	LogoURL      *string
}

// Site is the public projection served on the branch site.
type Site struct {
	BranchID     uuid.UUID
	Name         string
	Slug         string
	LogoURL      string
	Telephone    phone.Null
	Subscription subscriptionbus.Subscription
	Domains      []string
}

// Path is a site identifier, either a slug or a custom domain name.
type Path struct {
	Site string
}
