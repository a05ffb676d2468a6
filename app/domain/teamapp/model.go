package teamapp

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
)

// MemberID identifies the membership a team operation targets.
type MemberID struct {
	MemberID string `json:"memberId"`
}

// Decode implements the web.Decoder interface.
func (app *MemberID) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app MemberID) Validate() error {
	if strings.TrimSpace(app.MemberID) == "" {
		return errs.FieldErrors{{Field: "memberId", Err: "ID do membro é obrigatório"}}
	}

	if _, err := uuid.Parse(app.MemberID); err != nil {
		return errs.FieldErrors{{Field: "memberId", Err: "ID do membro inválido"}}
	}

	return nil
}

func (app MemberID) id() uuid.UUID {
	return uuid.MustParse(app.MemberID)
}

// JoinBranch carries the code shared by a branch to let people in.
type JoinBranch struct {
	BranchCode string `json:"branchCode"`
}

// Decode implements the web.Decoder interface.
func (app *JoinBranch) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app JoinBranch) Validate() error {
	if strings.TrimSpace(app.BranchCode) == "" {
		return errs.FieldErrors{{Field: "branchCode", Err: "Código da academia é obrigatório"}}
	}

	return nil
}

// Accepted is returned after an invitation is accepted.
type Accepted struct {
	Accepted bool `json:"accepted"`
}

// Declined is returned after an invitation is declined.
type Declined struct {
	Declined bool `json:"declined"`
}

// Removed is returned after a member leaves the team.
type Removed struct {
	Removed bool `json:"removed"`
}

// RoleUpdated reports the new role of a member.
type RoleUpdated struct {
	Updated  bool   `json:"updated"`
	TeamRole string `json:"teamRole"`
}

// Joined reports when the caller joined the branch.
type Joined struct {
	Joined   bool   `json:"joined"`
	Slug     string `json:"slug"`
	JoinedAt string `json:"joinedAt"`
}
