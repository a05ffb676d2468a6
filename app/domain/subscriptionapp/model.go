package subscriptionapp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/types/plan"
	"github.com/shopspring/decimal"
)

// Tenant is a branch as the platform staff sees it.
type Tenant struct {
	ID                 string  `json:"id"`
	IDBranch           int64   `json:"idBranch"`
	Name               string  `json:"name"`
	Slug               string  `json:"slug"`
	Email              string  `json:"email"`
	Telephone          string  `json:"telephone"`
	SubscriptionStatus string  `json:"subscriptionStatus"`
	SubscriptionPlan   string  `json:"subscriptionPlan"`
	TrialEndsAt        *string `json:"trialEndsAt"`
	SubscriptionEndsAt *string `json:"subscriptionEndsAt"`
	LastPaymentAt      *string `json:"lastPaymentAt"`
	ExternalRef        string  `json:"externalRef,omitempty"`
	HasAccess          bool    `json:"hasAccess"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

func toAppTenant(bus subscriptionbus.Tenant, now time.Time) Tenant {
	sub := bus.Subscription

	return Tenant{
		ID:                 bus.BranchID.String(),
		IDBranch:           bus.IDBranch,
		Name:               bus.Name,
		Slug:               bus.Slug,
		Email:              bus.Email,
		Telephone:          bus.Telephone,
		SubscriptionStatus: sub.Status.String(),
		SubscriptionPlan:   sub.Plan.String(),
		TrialEndsAt:        formatTime(sub.TrialEndsAt),
		SubscriptionEndsAt: formatTime(sub.EndsAt),
		LastPaymentAt:      formatTime(sub.LastPaymentAt),
		ExternalRef:        sub.ExternalRef,
		HasAccess:          subscriptionbus.HasAccess(&sub, now),
		CreatedAt:          bus.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppTenants(bus []subscriptionbus.Tenant, now time.Time) []Tenant {
	app := make([]Tenant, len(bus))
	for i, t := range bus {
		app[i] = toAppTenant(t, now)
	}
	return app
}

// TenantsResult wraps a list of branches.
type TenantsResult struct {
	Branches []Tenant `json:"branches"`
}

// TenantResult wraps a single branch.
type TenantResult struct {
	Branch Tenant `json:"branch"`
}

// Payment is one entry of the payment history.
type Payment struct {
	ID                string `json:"id"`
	ExternalPaymentID string `json:"externalPaymentId,omitempty"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Status            string `json:"status"`
	Description       string `json:"description,omitempty"`
	CreatedAt         string `json:"createdAt"`
}

func toAppPayment(bus subscriptionbus.Payment) Payment {
	return Payment{
		ID:                bus.ID.String(),
		ExternalPaymentID: bus.ExternalPaymentID,
		Amount:            bus.Amount.StringFixed(2),
		Currency:          bus.Currency,
		Status:            bus.Status,
		Description:       bus.Description,
		CreatedAt:         bus.CreatedAt.Format(time.RFC3339),
	}
}

// Detail is a branch with its latest payments.
type Detail struct {
	Tenant
	PaymentHistory []Payment `json:"paymentHistory"`
}

// DetailResult wraps a detail.
type DetailResult struct {
	Branch Detail `json:"branch"`
}

func toAppDetail(bus subscriptionbus.Detail, now time.Time) Detail {
	ps := make([]Payment, len(bus.Payments))
	for i, p := range bus.Payments {
		ps[i] = toAppPayment(p)
	}

	return Detail{
		Tenant:         toAppTenant(bus.Tenant, now),
		PaymentHistory: ps,
	}
}

// PaymentResult wraps a recorded payment.
type PaymentResult struct {
	Payment Payment `json:"payment"`
}

// SweepResult reports what a sweep changed.
type SweepResult struct {
	Ran       bool  `json:"ran"`
	Suspended int64 `json:"suspended"`
	PastDue   int64 `json:"pastDue"`
}

// PathsResult lists every site identifier.
type PathsResult struct {
	Paths []Path `json:"paths"`
}

// Path is the parameter set a site page is generated for.
type Path struct {
	Site string `json:"site"`
}

func toAppPaths(bus []branchbus.Path) PathsResult {
	ps := make([]Path, len(bus))
	for i, p := range bus {
		ps[i] = Path{Site: p.Site}
	}
	return PathsResult{Paths: ps}
}

// =============================================================================

// Action is an administrative command on a subscription.
type Action struct {
	Action      string `json:"action"`
	Plan        string `json:"plan"`
	ExternalRef string `json:"externalRef"`
}

// Decode implements the web.Decoder interface.
func (app *Action) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app Action) Validate() error {
	if _, err := subscriptionbus.ParseAction(app.Action); err != nil {
		return subscriptionbus.ErrUnknownAction
	}

	if app.Plan != "" {
		if _, err := plan.Parse(strings.ToUpper(app.Plan)); err != nil {
			return errs.FieldErrors{{Field: "plan", Err: err.Error()}}
		}
	}

	return nil
}

// parse returns the action and the plan, BASIC when none was given.
func (app Action) parse() (subscriptionbus.Action, plan.Plan) {
	act, _ := subscriptionbus.ParseAction(app.Action)

	p := plan.Basic
	if app.Plan != "" {
		p, _ = plan.Parse(strings.ToUpper(app.Plan))
	}

	return act, p
}

// NewPayment defines the data needed to record a payment.
type NewPayment struct {
	ExternalPaymentID string `json:"externalPaymentId"`
	Amount            string `json:"amount" validate:"required"`
	Currency          string `json:"currency" validate:"omitempty,len=3"`
	Status            string `json:"status" validate:"required"`
	Description       string `json:"description"`
}

// Decode implements the web.Decoder interface.
func (app *NewPayment) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewPayment) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewPayment(app NewPayment) (subscriptionbus.NewPayment, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(app.Amount))
	if err != nil {
		return subscriptionbus.NewPayment{}, errs.FieldErrors{{Field: "amount", Err: "Valor inválido"}}
	}

	np := subscriptionbus.NewPayment{
		ExternalPaymentID: app.ExternalPaymentID,
		Amount:            amount,
		Currency:          strings.ToUpper(app.Currency),
		Status:            app.Status,
		Description:       app.Description,
	}

	return np, nil
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}

	s := t.Format(time.RFC3339)
	return &s
}
