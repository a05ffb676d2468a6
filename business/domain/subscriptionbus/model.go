package subscriptionbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/types/plan"
	"github.com/jcpaschoal/painel-swim/business/types/substatus"
	"github.com/shopspring/decimal"
)

// Subscription holds the billing state of a branch.
type Subscription struct {
	Status        substatus.Status
	Plan          plan.Plan
	TrialEndsAt   *time.Time
	EndsAt        *time.Time
	LastPaymentAt *time.Time
	ExternalRef   string
}

// Tenant is the administrative view of a branch and its subscription.
type Tenant struct {
	BranchID     uuid.UUID
	IDBranch     int64
	Name         string
	Slug         string
	Email        string
	Telephone    string
	Subscription Subscription
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Detail is a tenant together with its most recent payments.
type Detail struct {
	Tenant   Tenant
	Payments []Payment
}

// Payment is an append-only payment history entry.
type Payment struct {
	ID                uuid.UUID
	BranchID          uuid.UUID
	ExternalPaymentID string
	Amount            decimal.Decimal
	Currency          string
	Status            string
	Description       string
	CreatedAt         time.Time
}

// NewPayment contains information needed to record a payment.
type NewPayment struct {
	ExternalPaymentID string
	Amount            decimal.Decimal
	Currency          string
	Status            string
	Description       string
}

// Change describes the columns a transition writes. Nil fields are left
// untouched.
type Change struct {
	Status           substatus.Status
	Plan             *plan.Plan
	TrialEndsAt      *time.Time
	EndsAt           *time.Time
	LastPaymentAt    *time.Time
	ExternalRef      *string
	ClearExternalRef bool
	UpdatedAt        time.Time
}

// SweepResult reports how many branches each sweep rule moved.
type SweepResult struct {
	Suspended int64
	PastDue   int64
}

// StatusMessage is the display state of a subscription.
type StatusMessage struct {
	Category string
	Message  string
}
