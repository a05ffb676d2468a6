package memberbus

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/types/invitestatus"
	"github.com/jcpaschoal/painel-swim/business/types/teamrole"
)

// Member is a person's seat in a branch team, pending or not.
type Member struct {
	ID        uuid.UUID
	BranchID  uuid.UUID
	Email     string
	Name      string
	TeamRole  teamrole.TeamRole
	Status    invitestatus.Status
	Inviter   string
	JoinedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Invitation is a pending membership together with the branch it is for.
type Invitation struct {
	Member          Member
	BranchName      string
	BranchSlug      string
	InviteCode      string
	BranchCode      string
	BranchCreatedAt time.Time
	CreatorEmail    string
	CreatorName     string
}

// NewInvite contains information needed to invite someone.
type NewInvite struct {
	Email    mail.Address
	TeamRole teamrole.TeamRole
}

// Actor identifies the user performing a team operation.
type Actor struct {
	UserID uuid.UUID
	Email  string
}
