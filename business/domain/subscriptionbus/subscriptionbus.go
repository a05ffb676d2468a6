// Package subscriptionbus provides business access to the subscription
// lifecycle of a branch.
package subscriptionbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/business/types/plan"
	"github.com/jcpaschoal/painel-swim/business/types/substatus"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jcpaschoal/painel-swim/foundation/otel"
)

// TrialDays is the length of the free trial granted on creation.
const TrialDays = 14

// DefaultCurrency is used when a payment does not name one.
const DefaultCurrency = "BRL"

// paymentsInDetail caps the payment history returned with a detail.
const paymentsInDetail = 10

// Set of error variables for subscription operations.
var (
	ErrNotFound      = errors.New("Academia não encontrada")
	ErrUnknownAction = errors.New("Ação inválida")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Apply(ctx context.Context, branchID uuid.UUID, ch Change) (Tenant, error)
	SuspendExpiredTrials(ctx context.Context, now time.Time) (int64, error)
	MarkPastDue(ctx context.Context, now time.Time) (int64, error)
	CreatePayment(ctx context.Context, p Payment) error
	QueryPayments(ctx context.Context, branchID uuid.UUID, limit int) ([]Payment, error)
	QueryAll(ctx context.Context) ([]Tenant, error)
	QueryExpired(ctx context.Context, now time.Time) ([]Tenant, error)
	QueryByID(ctx context.Context, branchID uuid.UUID) (Tenant, error)
}

// Observer is told about every transition, with the tenant as it stands
// afterwards, and about every sweep run.
type Observer interface {
	Transition(ctx context.Context, t Tenant)
	Swept(ctx context.Context, res SweepResult)
}

// Core manages the set of APIs for subscription access.
type Core struct {
	log       *logger.Logger
	storer    Storer
	observers []Observer
	now       func() time.Time
}

// NewCore constructs a subscription core API for use. Nil observers are
// ignored.
func NewCore(log *logger.Logger, storer Storer, observers ...Observer) *Core {
	var obs []Observer
	for _, o := range observers {
		if o != nil {
			obs = append(obs, o)
		}
	}

	return &Core{
		log:       log,
		storer:    storer,
		observers: obs,
		now:       time.Now,
	}
}

// WithClock returns a copy of the core reading time from now.
func (c *Core) WithClock(now func() time.Time) *Core {
	cc := *c
	cc.now = now
	return &cc
}

// NewWithTx constructs a new Core value replacing the Storer
// value with a Storer value that is currently inside a transaction.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newwithtx: %w", err)
	}

	cc := *c
	cc.storer = storer
	return &cc, nil
}

// Now returns the current instant as seen by the core.
func (c *Core) Now() time.Time {
	return c.now()
}

// StartTrial restarts the free trial.
func (c *Core) StartTrial(ctx context.Context, branchID uuid.UUID) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.starttrial")
	defer span.End()

	now := c.now()
	trialEndsAt := now.AddDate(0, 0, TrialDays)

	return c.apply(ctx, branchID, Change{
		Status:      substatus.Trial,
		TrialEndsAt: &trialEndsAt,
		UpdatedAt:   now,
	})
}

// Activate moves the branch to ACTIVE for one month from now. It applies to
// any current status.
func (c *Core) Activate(ctx context.Context, branchID uuid.UUID, p plan.Plan, externalRef string) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.activate")
	defer span.End()

	now := c.now()
	endsAt := now.AddDate(0, 1, 0)

	ch := Change{
		Status:        substatus.Active,
		Plan:          &p,
		EndsAt:        &endsAt,
		LastPaymentAt: &now,
		UpdatedAt:     now,
	}

	switch externalRef {
	case "":
		ch.ClearExternalRef = true
	default:
		ch.ExternalRef = &externalRef
	}

	return c.apply(ctx, branchID, ch)
}

// Suspend blocks access.
func (c *Core) Suspend(ctx context.Context, branchID uuid.UUID) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.suspend")
	defer span.End()

	return c.apply(ctx, branchID, Change{
		Status:    substatus.Suspended,
		UpdatedAt: c.now(),
	})
}

// Release manually reactivates a branch without touching the subscription
// end date.
func (c *Core) Release(ctx context.Context, branchID uuid.UUID) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.release")
	defer span.End()

	now := c.now()

	return c.apply(ctx, branchID, Change{
		Status:        substatus.Active,
		LastPaymentAt: &now,
		UpdatedAt:     now,
	})
}

// Cancel ends the subscription and forgets the external reference.
func (c *Core) Cancel(ctx context.Context, branchID uuid.UUID) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.cancel")
	defer span.End()

	return c.apply(ctx, branchID, Change{
		Status:           substatus.Cancelled,
		ClearExternalRef: true,
		UpdatedAt:        c.now(),
	})
}

// Execute runs an administrative action. The plan is only used by activate.
func (c *Core) Execute(ctx context.Context, branchID uuid.UUID, act Action, p plan.Plan, externalRef string) (Tenant, error) {
	switch act {
	case ActionActivate:
		return c.Activate(ctx, branchID, p, externalRef)
	case ActionSuspend:
		return c.Suspend(ctx, branchID)
	case ActionRelease:
		return c.Release(ctx, branchID)
	case ActionCancel:
		return c.Cancel(ctx, branchID)
	case ActionTrial:
		return c.StartTrial(ctx, branchID)
	}

	return Tenant{}, fmt.Errorf("execute: %w: %q", ErrUnknownAction, act.String())
}

// RecordPayment appends a payment to the branch history. Any amount is
// accepted, refunds and chargebacks included. It never changes the
// subscription status.
func (c *Core) RecordPayment(ctx context.Context, branchID uuid.UUID, np NewPayment) (Payment, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.recordpayment")
	defer span.End()

	currency := np.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	p := Payment{
		ID:                uuid.New(),
		BranchID:          branchID,
		ExternalPaymentID: np.ExternalPaymentID,
		Amount:            np.Amount,
		Currency:          currency,
		Status:            np.Status,
		Description:       np.Description,
		CreatedAt:         c.now(),
	}

	if err := c.storer.CreatePayment(ctx, p); err != nil {
		return Payment{}, fmt.Errorf("createpayment: %w", err)
	}

	return p, nil
}

// Sweep moves expired trials to SUSPENDED and lapsed subscriptions to
// PAST_DUE. Running it again right away changes nothing.
func (c *Core) Sweep(ctx context.Context) (SweepResult, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.sweep")
	defer span.End()

	now := c.now()

	suspended, err := c.storer.SuspendExpiredTrials(ctx, now)
	if err != nil {
		return SweepResult{}, fmt.Errorf("suspendexpiredtrials: %w", err)
	}

	pastDue, err := c.storer.MarkPastDue(ctx, now)
	if err != nil {
		return SweepResult{Suspended: suspended}, fmt.Errorf("markpastdue: %w", err)
	}

	res := SweepResult{Suspended: suspended, PastDue: pastDue}

	c.log.Info(ctx, "subscription sweep", "suspended", res.Suspended, "pastDue", res.PastDue)

	for _, o := range c.observers {
		o.Swept(ctx, res)
	}

	return res, nil
}

// QueryAll lists every branch with its subscription, newest first.
func (c *Core) QueryAll(ctx context.Context) ([]Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.queryall")
	defer span.End()

	tenants, err := c.storer.QueryAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("queryall: %w", err)
	}

	return tenants, nil
}

// QueryExpired lists branches whose trial or subscription lapsed, plus those
// already PAST_DUE.
func (c *Core) QueryExpired(ctx context.Context) ([]Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.queryexpired")
	defer span.End()

	tenants, err := c.storer.QueryExpired(ctx, c.now())
	if err != nil {
		return nil, fmt.Errorf("queryexpired: %w", err)
	}

	return tenants, nil
}

// QueryByID returns the subscription of a single branch.
func (c *Core) QueryByID(ctx context.Context, branchID uuid.UUID) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.querybyid")
	defer span.End()

	t, err := c.storer.QueryByID(ctx, branchID)
	if err != nil {
		return Tenant{}, fmt.Errorf("query: branchID[%s]: %w", branchID, err)
	}

	return t, nil
}

// QueryDetail returns the branch subscription and its latest payments.
func (c *Core) QueryDetail(ctx context.Context, branchID uuid.UUID) (Detail, error) {
	ctx, span := otel.AddSpan(ctx, "business.subscriptionbus.querydetail")
	defer span.End()

	t, err := c.QueryByID(ctx, branchID)
	if err != nil {
		return Detail{}, err
	}

	payments, err := c.storer.QueryPayments(ctx, branchID, paymentsInDetail)
	if err != nil {
		return Detail{}, fmt.Errorf("querypayments: %w", err)
	}

	return Detail{Tenant: t, Payments: payments}, nil
}

// HasAccess evaluates the access predicate with the core clock.
func (c *Core) HasAccess(sub *Subscription) bool {
	return HasAccess(sub, c.now())
}

// Message evaluates the display state with the core clock.
func (c *Core) Message(sub *Subscription) StatusMessage {
	return Message(sub, c.now())
}

func (c *Core) apply(ctx context.Context, branchID uuid.UUID, ch Change) (Tenant, error) {
	t, err := c.storer.Apply(ctx, branchID, ch)
	if err != nil {
		return Tenant{}, fmt.Errorf("apply: branchID[%s] status[%s]: %w", branchID, ch.Status, err)
	}

	for _, o := range c.observers {
		o.Transition(ctx, t)
	}

	return t, nil
}
