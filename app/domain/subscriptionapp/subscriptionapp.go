// Package subscriptionapp maintains the app layer api for the platform staff
// managing branch subscriptions.
package subscriptionapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/app/sdk/envelope"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
)

// Sweeper runs one sweep, possibly guarded by a lock shared with other
// instances.
type Sweeper interface {
	Run(ctx context.Context) (subscriptionbus.SweepResult, bool, error)
}

type app struct {
	subscriptionBus *subscriptionbus.Core
	branchBus       *branchbus.Core
	sweeper         Sweeper
}

func newApp(subscriptionBus *subscriptionbus.Core, branchBus *branchbus.Core, sweeper Sweeper) *app {
	return &app{
		subscriptionBus: subscriptionBus,
		branchBus:       branchBus,
		sweeper:         sweeper,
	}
}

func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	ts, err := a.subscriptionBus.QueryAll(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "queryall: %s", err)
	}

	return envelope.New(TenantsResult{Branches: toAppTenants(ts, a.subscriptionBus.Now())})
}

func (a *app) queryExpired(ctx context.Context, r *http.Request) web.Encoder {
	ts, err := a.subscriptionBus.QueryExpired(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "queryexpired: %s", err)
	}

	return envelope.New(TenantsResult{Branches: toAppTenants(ts, a.subscriptionBus.Now())})
}

func (a *app) queryDetail(ctx context.Context, r *http.Request) web.Encoder {
	branchID, err := uuid.Parse(web.Param(r, "branch_id"))
	if err != nil {
		return errs.New(errs.NotFound, subscriptionbus.ErrNotFound)
	}

	d, err := a.subscriptionBus.QueryDetail(ctx, branchID)
	if err != nil {
		return mapSubscriptionErr(err, "querydetail")
	}

	return envelope.New(DetailResult{Branch: toAppDetail(d, a.subscriptionBus.Now())})
}

func (a *app) execute(ctx context.Context, r *http.Request) web.Encoder {
	var req Action
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	branchID, err := uuid.Parse(web.Param(r, "branch_id"))
	if err != nil {
		return errs.New(errs.NotFound, subscriptionbus.ErrNotFound)
	}

	act, p := req.parse()

	t, err := a.subscriptionBus.Execute(ctx, branchID, act, p, req.ExternalRef)
	if err != nil {
		return mapSubscriptionErr(err, "execute")
	}

	msg := fmt.Sprintf("Ação %q executada com sucesso", act.String())

	return envelope.NewWithMessage(TenantResult{Branch: toAppTenant(t, a.subscriptionBus.Now())}, msg)
}

func (a *app) recordPayment(ctx context.Context, r *http.Request) web.Encoder {
	var req NewPayment
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	branchID, err := uuid.Parse(web.Param(r, "branch_id"))
	if err != nil {
		return errs.New(errs.NotFound, subscriptionbus.ErrNotFound)
	}

	np, err := toBusNewPayment(req)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	if _, err := a.subscriptionBus.QueryByID(ctx, branchID); err != nil {
		return mapSubscriptionErr(err, "querybyid")
	}

	p, err := a.subscriptionBus.RecordPayment(ctx, branchID, np)
	if err != nil {
		return errs.Errorf(errs.Internal, "recordpayment: branchID[%s]: %s", branchID, err)
	}

	return envelope.Created(PaymentResult{Payment: toAppPayment(p)})
}

func (a *app) sweep(ctx context.Context, r *http.Request) web.Encoder {
	res, ran, err := a.sweeper.Run(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "sweep: %s", err)
	}

	if !ran {
		return errs.New(errs.Aborted, errors.New("Varredura já em execução"))
	}

	return envelope.New(SweepResult{Ran: true, Suspended: res.Suspended, PastDue: res.PastDue})
}

func (a *app) queryPaths(ctx context.Context, r *http.Request) web.Encoder {
	ps, err := a.branchBus.QueryPaths(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "querypaths: %s", err)
	}

	return envelope.New(toAppPaths(ps))
}

func mapSubscriptionErr(err error, op string) *errs.Error {
	switch {
	case errors.Is(err, subscriptionbus.ErrNotFound):
		return errs.New(errs.NotFound, subscriptionbus.ErrNotFound)
	case errors.Is(err, subscriptionbus.ErrUnknownAction):
		return errs.New(errs.InvalidArgument, subscriptionbus.ErrUnknownAction)
	}

	return errs.Errorf(errs.Internal, "%s: %s", op, err)
}
