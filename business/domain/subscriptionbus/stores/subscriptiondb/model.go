package subscriptiondb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/types/plan"
	"github.com/jcpaschoal/painel-swim/business/types/substatus"
	"github.com/shopspring/decimal"
)

type tenantDB struct {
	BranchID           uuid.UUID      `db:"branch_id"`
	IDBranch           int64          `db:"id_branch"`
	Name               string         `db:"name"`
	Slug               string         `db:"slug"`
	Email              sql.NullString `db:"email"`
	Telephone          sql.NullString `db:"telephone"`
	SubscriptionStatus string         `db:"subscription_status"`
	SubscriptionPlan   string         `db:"subscription_plan"`
	TrialEndsAt        sql.NullTime   `db:"trial_ends_at"`
	SubscriptionEndsAt sql.NullTime   `db:"subscription_ends_at"`
	LastPaymentAt      sql.NullTime   `db:"last_payment_at"`
	ExternalRef        sql.NullString `db:"external_subscription_ref"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func toBusTenant(db tenantDB) (subscriptionbus.Tenant, error) {
	status, err := substatus.Parse(db.SubscriptionStatus)
	if err != nil {
		return subscriptionbus.Tenant{}, fmt.Errorf("parse status: %w", err)
	}

	p, err := plan.Parse(db.SubscriptionPlan)
	if err != nil {
		return subscriptionbus.Tenant{}, fmt.Errorf("parse plan: %w", err)
	}

	return subscriptionbus.Tenant{
		BranchID:  db.BranchID,
		IDBranch:  db.IDBranch,
		Name:      db.Name,
		Slug:      db.Slug,
		Email:     db.Email.String,
		Telephone: db.Telephone.String,
		Subscription: subscriptionbus.Subscription{
			Status:        status,
			Plan:          p,
			TrialEndsAt:   nullTime(db.TrialEndsAt),
			EndsAt:        nullTime(db.SubscriptionEndsAt),
			LastPaymentAt: nullTime(db.LastPaymentAt),
			ExternalRef:   db.ExternalRef.String,
		},
		CreatedAt: db.CreatedAt.In(time.Local),
		UpdatedAt: db.UpdatedAt.In(time.Local),
	}, nil
}

func toBusTenants(dbs []tenantDB) ([]subscriptionbus.Tenant, error) {
	bus := make([]subscriptionbus.Tenant, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusTenant(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.In(time.Local)
	return &t
}

// =============================================================================

type paymentDB struct {
	ID                uuid.UUID       `db:"payment_id"`
	BranchID          uuid.UUID       `db:"branch_id"`
	ExternalPaymentID sql.NullString  `db:"external_payment_id"`
	Amount            decimal.Decimal `db:"amount"`
	Currency          string          `db:"currency"`
	Status            string          `db:"status"`
	Description       sql.NullString  `db:"description"`
	CreatedAt         time.Time       `db:"created_at"`
}

func toDBPayment(bus subscriptionbus.Payment) paymentDB {
	return paymentDB{
		ID:                bus.ID,
		BranchID:          bus.BranchID,
		ExternalPaymentID: sql.NullString{String: bus.ExternalPaymentID, Valid: bus.ExternalPaymentID != ""},
		Amount:            bus.Amount,
		Currency:          bus.Currency,
		Status:            bus.Status,
		Description:       sql.NullString{String: bus.Description, Valid: bus.Description != ""},
		CreatedAt:         bus.CreatedAt.UTC(),
	}
}

func toBusPayments(dbs []paymentDB) []subscriptionbus.Payment {
	bus := make([]subscriptionbus.Payment, len(dbs))

	for i, db := range dbs {
		bus[i] = subscriptionbus.Payment{
			ID:                db.ID,
			BranchID:          db.BranchID,
			ExternalPaymentID: db.ExternalPaymentID.String,
			Amount:            db.Amount,
			Currency:          db.Currency,
			Status:            db.Status,
			Description:       db.Description.String,
			CreatedAt:         db.CreatedAt.In(time.Local),
		}
	}

	return bus
}
