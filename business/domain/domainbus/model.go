package domainbus

import (
	"time"

	"github.com/google/uuid"
)

// Domain is a custom hostname pointing at a branch site.
type Domain struct {
	ID        uuid.UUID
	Name      string
	Subdomain string
	Value     string
	Verified  bool
	BranchID  uuid.UUID
	AddedByID uuid.UUID
	CreatedAt time.Time
}

// Verification is a DNS record the owner must publish to prove control.
type Verification struct {
	Domain string
	Value  string
}

// NewDomain contains information needed to add a domain. Verification is
// only read when the domain is not verified yet.
type NewDomain struct {
	Name         string
	ApexName     string
	Verified     bool
	Verification []Verification
	BranchID     uuid.UUID
	AddedByID    uuid.UUID
}

// CheckResult is what a domain check reports. Unknown names come back
// unverified with no record.
type CheckResult struct {
	Name      string
	Subdomain string
	Value     string
	Verified  bool
}
