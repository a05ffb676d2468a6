package subscriptionbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/business/types/plan"
	"github.com/jcpaschoal/painel-swim/business/types/substatus"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps tenants in memory and applies the same rules as the
// SQL store.
type memStore struct {
	tenants  map[uuid.UUID]subscriptionbus.Tenant
	payments []subscriptionbus.Payment
}

func newMemStore(ts ...subscriptionbus.Tenant) *memStore {
	s := memStore{tenants: make(map[uuid.UUID]subscriptionbus.Tenant)}
	for _, t := range ts {
		s.tenants[t.BranchID] = t
	}
	return &s
}

func (s *memStore) NewWithTx(sqldb.CommitRollbacker) (subscriptionbus.Storer, error) {
	return s, nil
}

func (s *memStore) Apply(_ context.Context, branchID uuid.UUID, ch subscriptionbus.Change) (subscriptionbus.Tenant, error) {
	t, ok := s.tenants[branchID]
	if !ok {
		return subscriptionbus.Tenant{}, subscriptionbus.ErrNotFound
	}

	t.Subscription.Status = ch.Status
	if ch.Plan != nil {
		t.Subscription.Plan = *ch.Plan
	}
	if ch.TrialEndsAt != nil {
		t.Subscription.TrialEndsAt = ch.TrialEndsAt
	}
	if ch.EndsAt != nil {
		t.Subscription.EndsAt = ch.EndsAt
	}
	if ch.LastPaymentAt != nil {
		t.Subscription.LastPaymentAt = ch.LastPaymentAt
	}
	switch {
	case ch.ClearExternalRef:
		t.Subscription.ExternalRef = ""
	case ch.ExternalRef != nil:
		t.Subscription.ExternalRef = *ch.ExternalRef
	}
	t.UpdatedAt = ch.UpdatedAt

	s.tenants[branchID] = t
	return t, nil
}

func (s *memStore) SuspendExpiredTrials(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, t := range s.tenants {
		sub := t.Subscription
		if sub.Status.Equal(substatus.Trial) && sub.TrialEndsAt != nil && sub.TrialEndsAt.Before(now) {
			t.Subscription.Status = substatus.Suspended
			s.tenants[id] = t
			n++
		}
	}
	return n, nil
}

func (s *memStore) MarkPastDue(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, t := range s.tenants {
		sub := t.Subscription
		if sub.Status.Equal(substatus.Active) && sub.EndsAt != nil && sub.EndsAt.Before(now) {
			t.Subscription.Status = substatus.PastDue
			s.tenants[id] = t
			n++
		}
	}
	return n, nil
}

func (s *memStore) CreatePayment(_ context.Context, p subscriptionbus.Payment) error {
	if _, ok := s.tenants[p.BranchID]; !ok {
		return subscriptionbus.ErrNotFound
	}
	s.payments = append(s.payments, p)
	return nil
}

func (s *memStore) QueryPayments(_ context.Context, branchID uuid.UUID, limit int) ([]subscriptionbus.Payment, error) {
	var out []subscriptionbus.Payment
	for i := len(s.payments) - 1; i >= 0 && len(out) < limit; i-- {
		if s.payments[i].BranchID == branchID {
			out = append(out, s.payments[i])
		}
	}
	return out, nil
}

func (s *memStore) QueryAll(context.Context) ([]subscriptionbus.Tenant, error) {
	out := make([]subscriptionbus.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (s *memStore) QueryExpired(context.Context, time.Time) ([]subscriptionbus.Tenant, error) {
	return nil, nil
}

func (s *memStore) QueryByID(_ context.Context, branchID uuid.UUID) (subscriptionbus.Tenant, error) {
	t, ok := s.tenants[branchID]
	if !ok {
		return subscriptionbus.Tenant{}, subscriptionbus.ErrNotFound
	}
	return t, nil
}

type countingObserver struct {
	transitions []substatus.Status
	slugs       []string
	sweeps      int
}

func (o *countingObserver) Transition(_ context.Context, t subscriptionbus.Tenant) {
	o.transitions = append(o.transitions, t.Subscription.Status)
	o.slugs = append(o.slugs, t.Slug)
}

func (o *countingObserver) Swept(context.Context, subscriptionbus.SweepResult) {
	o.sweeps++
}

// =============================================================================

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newCore(store *memStore, obs subscriptionbus.Observer) *subscriptionbus.Core {
	return subscriptionbus.NewCore(logger.Discard(), store, obs).WithClock(func() time.Time { return now })
}

func tenant(status substatus.Status) subscriptionbus.Tenant {
	return subscriptionbus.Tenant{
		BranchID: uuid.New(),
		Name:     "Academia Azul",
		Slug:     "academia-azul",
		Subscription: subscriptionbus.Subscription{
			Status: status,
			Plan:   plan.Basic,
		},
	}
}

func TestActivateSuspended(t *testing.T) {
	ten := tenant(substatus.Suspended)
	obs := countingObserver{}
	core := newCore(newMemStore(ten), &obs)

	got, err := core.Activate(context.Background(), ten.BranchID, plan.Pro, "sub_123")
	require.NoError(t, err)

	sub := got.Subscription
	assert.Equal(t, substatus.Active, sub.Status)
	assert.Equal(t, plan.Pro, sub.Plan)
	require.NotNil(t, sub.EndsAt)
	assert.Equal(t, now.AddDate(0, 1, 0), *sub.EndsAt)
	require.NotNil(t, sub.LastPaymentAt)
	assert.Equal(t, now, *sub.LastPaymentAt)
	assert.Equal(t, "sub_123", sub.ExternalRef)
	assert.True(t, core.HasAccess(&sub))
	assert.Equal(t, []substatus.Status{substatus.Active}, obs.transitions)
}

func TestObserversSeeTenant(t *testing.T) {
	ten := tenant(substatus.Active)
	first := countingObserver{}
	second := countingObserver{}
	core := subscriptionbus.NewCore(logger.Discard(), newMemStore(ten), &first, nil, &second)

	_, err := core.Suspend(context.Background(), ten.BranchID)
	require.NoError(t, err)

	_, err = core.Sweep(context.Background())
	require.NoError(t, err)

	for _, obs := range []countingObserver{first, second} {
		assert.Equal(t, []substatus.Status{substatus.Suspended}, obs.transitions)
		assert.Equal(t, []string{"academia-azul"}, obs.slugs)
		assert.Equal(t, 1, obs.sweeps)
	}
}

func TestExecuteActions(t *testing.T) {
	ten := tenant(substatus.Active)
	ten.Subscription.ExternalRef = "sub_1"
	store := newMemStore(ten)
	core := newCore(store, nil)
	ctx := context.Background()

	got, err := core.Execute(ctx, ten.BranchID, subscriptionbus.ActionSuspend, plan.Plan{}, "")
	require.NoError(t, err)
	assert.Equal(t, substatus.Suspended, got.Subscription.Status)
	assert.False(t, core.HasAccess(&got.Subscription))

	got, err = core.Execute(ctx, ten.BranchID, subscriptionbus.ActionRelease, plan.Plan{}, "")
	require.NoError(t, err)
	assert.Equal(t, substatus.Active, got.Subscription.Status)
	assert.Equal(t, now, *got.Subscription.LastPaymentAt)

	got, err = core.Execute(ctx, ten.BranchID, subscriptionbus.ActionCancel, plan.Plan{}, "")
	require.NoError(t, err)
	assert.Equal(t, substatus.Cancelled, got.Subscription.Status)
	assert.Empty(t, got.Subscription.ExternalRef)

	got, err = core.Execute(ctx, ten.BranchID, subscriptionbus.ActionTrial, plan.Plan{}, "")
	require.NoError(t, err)
	assert.Equal(t, substatus.Trial, got.Subscription.Status)
	assert.Equal(t, now.AddDate(0, 0, 14), *got.Subscription.TrialEndsAt)

	_, err = core.Execute(ctx, ten.BranchID, subscriptionbus.Action{}, plan.Plan{}, "")
	assert.ErrorIs(t, err, subscriptionbus.ErrUnknownAction)

	_, err = core.Suspend(ctx, uuid.New())
	assert.ErrorIs(t, err, subscriptionbus.ErrNotFound)
}

func TestSweepIsIdempotent(t *testing.T) {
	expiredTrial := tenant(substatus.Trial)
	end := now.Add(-time.Second)
	expiredTrial.Subscription.TrialEndsAt = &end

	runningTrial := tenant(substatus.Trial)
	later := now.Add(time.Hour)
	runningTrial.Subscription.TrialEndsAt = &later

	lapsed := tenant(substatus.Active)
	lapsed.Subscription.EndsAt = &end

	store := newMemStore(expiredTrial, runningTrial, lapsed)
	obs := countingObserver{}
	core := newCore(store, &obs)

	res, err := core.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, subscriptionbus.SweepResult{Suspended: 1, PastDue: 1}, res)

	res, err = core.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, subscriptionbus.SweepResult{}, res)

	assert.Equal(t, substatus.Suspended, store.tenants[expiredTrial.BranchID].Subscription.Status)
	assert.Equal(t, substatus.Trial, store.tenants[runningTrial.BranchID].Subscription.Status)
	assert.Equal(t, substatus.PastDue, store.tenants[lapsed.BranchID].Subscription.Status)
	assert.Equal(t, 2, obs.sweeps)
}

func TestRecordPayment(t *testing.T) {
	ten := tenant(substatus.Active)
	store := newMemStore(ten)
	core := newCore(store, nil)
	ctx := context.Background()

	refund, err := core.RecordPayment(ctx, ten.BranchID, subscriptionbus.NewPayment{
		Amount: decimal.RequireFromString("-49.90"),
		Status: "refunded",
	})
	require.NoError(t, err)
	assert.True(t, refund.Amount.IsNegative())

	p, err := core.RecordPayment(ctx, ten.BranchID, subscriptionbus.NewPayment{
		Amount: decimal.RequireFromString("149.90"),
		Status: "paid",
	})
	require.NoError(t, err)
	assert.Equal(t, subscriptionbus.DefaultCurrency, p.Currency)

	d, err := core.QueryDetail(ctx, ten.BranchID)
	require.NoError(t, err)
	require.Len(t, d.Payments, 2)
	assert.True(t, d.Payments[0].Amount.Equal(decimal.RequireFromString("149.9")))
	assert.Equal(t, substatus.Active, d.Tenant.Subscription.Status)
}

func TestParseAction(t *testing.T) {
	a, err := subscriptionbus.ParseAction("activate")
	require.NoError(t, err)
	assert.Equal(t, subscriptionbus.ActionActivate, a)

	_, err = subscriptionbus.ParseAction("refund")
	assert.ErrorIs(t, err, subscriptionbus.ErrUnknownAction)
}
