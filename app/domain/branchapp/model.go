package branchapp

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/memberbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/types/phone"
	"github.com/jcpaschoal/painel-swim/business/types/teamrole"
)

// Branch represents a branch as seen by its team.
type Branch struct {
	ID                 string   `json:"id"`
	IDBranch           int64    `json:"idBranch"`
	Slug               string   `json:"slug"`
	InviteCode         string   `json:"inviteCode"`
	BranchCode         string   `json:"branchCode"`
	Name               string   `json:"name"`
	InternalName       string   `json:"internalName"`
	CNPJ               string   `json:"cnpj"`
	Address            string   `json:"address"`
	Neighborhood       string   `json:"neighborhood"`
	Number             string   `json:"number"`
	Complement         string   `json:"complement"`
	City               string   `json:"city"`
	State              string   `json:"state"`
	StateShort         string   `json:"stateShort"`
	ZipCode            string   `json:"zipCode"`
	Telephone          string   `json:"telephone"`
	Whatsapp           string   `json:"whatsapp"`
	Email              string   `json:"email"`
	Website            string   `json:"website"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	LogoURL            string   `json:"logoUrl"`
	OpeningDate        *string  `json:"openingDate"`
	SubscriptionStatus string   `json:"subscriptionStatus"`
	SubscriptionPlan   string   `json:"subscriptionPlan"`
	TrialEndsAt        *string  `json:"trialEndsAt"`
	SubscriptionEndsAt *string  `json:"subscriptionEndsAt"`
	CreatorID          string   `json:"creatorId"`
	CreatedAt          string   `json:"createdAt"`
	UpdatedAt          string   `json:"updatedAt"`
}

func toAppBranch(bus branchbus.Branch) Branch {
	p := bus.Profile

	return Branch{
		ID:                 bus.ID.String(),
		IDBranch:           bus.IDBranch,
		Slug:               bus.Slug,
		InviteCode:         bus.InviteCode,
		BranchCode:         bus.BranchCode,
		Name:               bus.Name,
		InternalName:       p.InternalName,
		CNPJ:               p.CNPJ,
		Address:            p.Address,
		Neighborhood:       p.Neighborhood,
		Number:             p.Number,
		Complement:         p.Complement,
		City:               p.City,
		State:              p.State,
		StateShort:         p.StateShort,
		ZipCode:            p.ZipCode,
		Telephone:          p.Telephone.String(),
		Whatsapp:           p.Whatsapp.String(),
		Email:              p.Email,
		Website:            p.Website,
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		LogoURL:            p.LogoURL,
		OpeningDate:        formatTime(p.OpeningDate),
		SubscriptionStatus: bus.Subscription.Status.String(),
		SubscriptionPlan:   bus.Subscription.Plan.String(),
		TrialEndsAt:        formatTime(bus.Subscription.TrialEndsAt),
		SubscriptionEndsAt: formatTime(bus.Subscription.EndsAt),
		CreatorID:          bus.CreatorID.String(),
		CreatedAt:          bus.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppBranches(bus []branchbus.Branch) []Branch {
	app := make([]Branch, len(bus))
	for i, b := range bus {
		app[i] = toAppBranch(b)
	}
	return app
}

// BranchResult wraps a single branch.
type BranchResult struct {
	Branch Branch `json:"branch"`
}

// BranchesResult wraps a list of branches.
type BranchesResult struct {
	Branches []Branch `json:"branches"`
}

// CreatedBranch is returned after a branch is created.
type CreatedBranch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// NameResult is returned after a rename.
type NameResult struct {
	Name string `json:"name"`
}

// SlugResult is returned after a slug change.
type SlugResult struct {
	Slug string `json:"slug"`
}

// DeletedResult is returned after a branch is deleted.
type DeletedResult struct {
	Slug string `json:"slug"`
}

// InviteLink is what an invitation link reveals about a branch.
type InviteLink struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	BranchCode string `json:"branchCode"`
}

func toAppInviteLink(bus branchbus.Branch) InviteLink {
	return InviteLink{
		ID:         bus.ID.String(),
		Name:       bus.Name,
		Slug:       bus.Slug,
		BranchCode: bus.BranchCode,
	}
}

// =============================================================================

// StatusMessage is the display state of a subscription.
type StatusMessage struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Subscription is the subscription state of a branch with its access
// decision.
type Subscription struct {
	Status        string        `json:"subscriptionStatus"`
	Plan          string        `json:"subscriptionPlan"`
	TrialEndsAt   *string       `json:"trialEndsAt"`
	EndsAt        *string       `json:"subscriptionEndsAt"`
	LastPaymentAt *string       `json:"lastPaymentAt"`
	TrialDaysLeft int           `json:"trialDaysLeft"`
	HasAccess     bool          `json:"hasAccess"`
	Message       StatusMessage `json:"message"`
}

func toAppSubscription(sub subscriptionbus.Subscription, now time.Time) Subscription {
	msg := subscriptionbus.Message(&sub, now)

	return Subscription{
		Status:        sub.Status.String(),
		Plan:          sub.Plan.String(),
		TrialEndsAt:   formatTime(sub.TrialEndsAt),
		EndsAt:        formatTime(sub.EndsAt),
		LastPaymentAt: formatTime(sub.LastPaymentAt),
		TrialDaysLeft: subscriptionbus.TrialDaysLeft(sub, now),
		HasAccess:     subscriptionbus.HasAccess(&sub, now),
		Message: StatusMessage{
			Category: msg.Category,
			Message:  msg.Message,
		},
	}
}

// =============================================================================

// Member is a seat in the branch team.
type Member struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	TeamRole  string  `json:"teamRole"`
	Status    string  `json:"status"`
	Inviter   string  `json:"inviter"`
	JoinedAt  *string `json:"joinedAt"`
	CreatedAt string  `json:"createdAt"`
}

func toAppMember(bus memberbus.Member) Member {
	return Member{
		ID:        bus.ID.String(),
		Email:     bus.Email,
		Name:      bus.Name,
		TeamRole:  bus.TeamRole.String(),
		Status:    bus.Status.String(),
		Inviter:   bus.Inviter,
		JoinedAt:  formatTime(bus.JoinedAt),
		CreatedAt: bus.CreatedAt.Format(time.RFC3339),
	}
}

func toAppMembers(bus []memberbus.Member) []Member {
	app := make([]Member, len(bus))
	for i, m := range bus {
		app[i] = toAppMember(m)
	}
	return app
}

// MembersResult wraps the team of a branch.
type MembersResult struct {
	Members []Member `json:"members"`
}

// Invitation is a pending invitation of the caller.
type Invitation struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	TeamRole  string           `json:"teamRole"`
	Status    string           `json:"status"`
	Inviter   string           `json:"inviter"`
	CreatedAt string           `json:"createdAt"`
	Branch    InvitationBranch `json:"branch"`
}

// InvitationBranch is the branch an invitation is for.
type InvitationBranch struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	InviteCode   string `json:"inviteCode"`
	BranchCode   string `json:"branchCode"`
	CreatedAt    string `json:"createdAt"`
	CreatorEmail string `json:"creatorEmail"`
	CreatorName  string `json:"creatorName"`
}

func toAppInvitations(bus []memberbus.Invitation) []Invitation {
	app := make([]Invitation, len(bus))
	for i, inv := range bus {
		app[i] = Invitation{
			ID:        inv.Member.ID.String(),
			Email:     inv.Member.Email,
			TeamRole:  inv.Member.TeamRole.String(),
			Status:    inv.Member.Status.String(),
			Inviter:   inv.Member.Inviter,
			CreatedAt: inv.Member.CreatedAt.Format(time.RFC3339),
			Branch: InvitationBranch{
				Name:         inv.BranchName,
				Slug:         inv.BranchSlug,
				InviteCode:   inv.InviteCode,
				BranchCode:   inv.BranchCode,
				CreatedAt:    inv.BranchCreatedAt.Format(time.RFC3339),
				CreatorEmail: inv.CreatorEmail,
				CreatorName:  inv.CreatorName,
			},
		}
	}
	return app
}

// InvitationsResult wraps the pending invitations of the caller.
type InvitationsResult struct {
	Invitations []Invitation `json:"invitations"`
}

// =============================================================================

// NewBranch defines the data needed to create a branch.
type NewBranch struct {
	Name      string `json:"name"`
	CNPJ      string `json:"cnpj"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Telephone string `json:"telephone"`
	Whatsapp  string `json:"whatsapp"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// Decode implements the web.Decoder interface.
func (app *NewBranch) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewBranch) Validate() error {
	if strings.TrimSpace(app.Name) == "" {
		return errs.FieldErrors{{Field: "name", Err: "Nome é obrigatório"}}
	}

	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewBranch(app NewBranch, creatorID uuid.UUID) (branchbus.NewBranch, error) {
	var fe errs.FieldErrors

	tel, err := phone.ParseNull(app.Telephone)
	if err != nil {
		fe.Add("telephone", err)
	}

	wpp, err := phone.ParseNull(app.Whatsapp)
	if err != nil {
		fe.Add("whatsapp", err)
	}

	if len(fe) > 0 {
		return branchbus.NewBranch{}, fe
	}

	nb := branchbus.NewBranch{
		Name:      strings.TrimSpace(app.Name),
		CreatorID: creatorID,
		Profile: branchbus.Profile{
			CNPJ:      app.CNPJ,
			Address:   app.Address,
			City:      app.City,
			State:     app.State,
			Telephone: tel,
			Whatsapp:  wpp,
			Email:     app.Email,
		},
	}

	return nb, nil
}

// =============================================================================

// UpdateBranch defines the profile fields a team may change. Absent fields
// are left untouched.
type UpdateBranch struct {
	Name         *string     `json:"name"`
	InternalName *string     `json:"internalName"`
	CNPJ         *string     `json:"cnpj"`
	Address      *string     `json:"address"`
	Neighborhood *string     `json:"neighborhood"`
	Number       *string     `json:"number"`
	Complement   *string     `json:"complement"`
	City         *string     `json:"city"`
	State        *string     `json:"state"`
	StateShort   *string     `json:"stateShort"`
	ZipCode      *string     `json:"zipCode"`
	Telephone    *string     `json:"telephone"`
	Whatsapp     *string     `json:"whatsapp"`
	Email        *string     `json:"email" validate:"omitempty,email"`
	Website      *string     `json:"website"`
	Latitude     Coordinate  `json:"latitude"`
	Longitude    Coordinate  `json:"longitude"`
	LogoURL      *string     `json:"logoUrl"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateBranch) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateBranch) Validate() error {
	if app.Name != nil && strings.TrimSpace(*app.Name) == "" {
		return errs.FieldErrors{{Field: "name", Err: "Nome é obrigatório"}}
	}

	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusUpdateBranch(app UpdateBranch) (branchbus.UpdateBranch, error) {
	var fe errs.FieldErrors

	ub := branchbus.UpdateBranch{
		Name:         app.Name,
		InternalName: app.InternalName,
		CNPJ:         app.CNPJ,
		Address:      app.Address,
		Neighborhood: app.Neighborhood,
		Number:       app.Number,
		Complement:   app.Complement,
		City:         app.City,
		State:        app.State,
		StateShort:   app.StateShort,
		ZipCode:      app.ZipCode,
		Email:        app.Email,
		Website:      app.Website,
		LogoURL:      app.LogoURL,
	}

	if app.Telephone != nil {
		tel, err := phone.ParseNull(*app.Telephone)
		if err != nil {
			fe.Add("telephone", err)
		}
		ub.Telephone = &tel
	}

	if app.Whatsapp != nil {
		wpp, err := phone.ParseNull(*app.Whatsapp)
		if err != nil {
			fe.Add("whatsapp", err)
		}
		ub.Whatsapp = &wpp
	}

	if app.Latitude.Set {
		ub.Latitude = &app.Latitude.Null
	}

	if app.Longitude.Set {
		ub.Longitude = &app.Longitude.Null
	}

	if len(fe) > 0 {
		return branchbus.UpdateBranch{}, fe
	}

	return ub, nil
}

// Coordinate accepts a number, a numeric string, or null. Empty strings and
// null clear the value. Set reports whether the key was present at all.
type Coordinate struct {
	sql.Null[float64]
	Set bool
}

// UnmarshalJSON implements the json.Unmarshaler interface. It runs for a
// literal null too, since Coordinate is decoded as a value.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	c.Set = true
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		c.Null = sql.Null[float64]{}
		return nil
	}

	s := string(data)
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}

	if s == "" {
		c.Null = sql.Null[float64]{}
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.New("coordinate must be a number")
	}

	c.Null = sql.Null[float64]{V: f, Valid: true}
	return nil
}

// UpdateName defines the data needed to rename a branch.
type UpdateName struct {
	Name string `json:"name" validate:"required,max=128"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateName) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateName) Validate() error {
	if strings.TrimSpace(app.Name) == "" {
		return errs.FieldErrors{{Field: "name", Err: "Nome é obrigatório"}}
	}

	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

// UpdateSlug defines the data needed to change the slug of a branch.
type UpdateSlug struct {
	Slug string `json:"slug" validate:"required,max=64"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateSlug) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateSlug) Validate() error {
	if strings.TrimSpace(app.Slug) == "" {
		return errs.FieldErrors{{Field: "slug", Err: "Slug é obrigatório"}}
	}

	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

// NewInvites defines the people to invite into the team.
type NewInvites struct {
	Members []NewInvite `json:"members" validate:"required,min=1,dive"`
}

// NewInvite is one person to invite.
type NewInvite struct {
	Email    string `json:"email" validate:"required,email"`
	TeamRole string `json:"role"`
}

// Decode implements the web.Decoder interface.
func (app *NewInvites) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewInvites) Validate() error {
	if len(app.Members) == 0 {
		return errs.FieldErrors{{Field: "members", Err: "Informe ao menos um email"}}
	}

	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewInvites(app NewInvites) ([]memberbus.NewInvite, error) {
	invites := make([]memberbus.NewInvite, len(app.Members))

	for i, m := range app.Members {
		addr, err := mail.ParseAddress(m.Email)
		if err != nil {
			return nil, errs.FieldErrors{{Field: "email", Err: fmt.Sprintf("Email inválido: %s", m.Email)}}
		}

		tr := teamrole.Member
		if m.TeamRole != "" {
			tr, err = teamrole.Parse(strings.ToUpper(m.TeamRole))
			if err != nil {
				return nil, errs.FieldErrors{{Field: "role", Err: err.Error()}}
			}
		}

		invites[i] = memberbus.NewInvite{
			Email:    mail.Address{Address: strings.ToLower(addr.Address)},
			TeamRole: tr,
		}
	}

	return invites, nil
}

// InvitedResult lists the invitations that were created.
type InvitedResult struct {
	Members []Member `json:"members"`
}

// =============================================================================

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}

	s := t.Format(time.RFC3339)
	return &s
}
