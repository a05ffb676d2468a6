package branchdb

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/types/phone"
	"github.com/jcpaschoal/painel-swim/business/types/plan"
	"github.com/jcpaschoal/painel-swim/business/types/substatus"
)

type branchDB struct {
	ID                 uuid.UUID       `db:"branch_id"`
	IDBranch           int64           `db:"id_branch"`
	Slug               string          `db:"slug"`
	InviteCode         string          `db:"invite_code"`
	BranchCode         string          `db:"branch_code"`
	Name               string          `db:"name"`
	InternalName       sql.NullString  `db:"internal_name"`
	CNPJ               sql.NullString  `db:"cnpj"`
	Address            sql.NullString  `db:"address"`
	Neighborhood       sql.NullString  `db:"neighborhood"`
	Number             sql.NullString  `db:"number"`
	Complement         sql.NullString  `db:"complement"`
	City               sql.NullString  `db:"city"`
	State              sql.NullString  `db:"state"`
	StateShort         sql.NullString  `db:"state_short"`
	ZipCode            sql.NullString  `db:"zip_code"`
	Telephone          sql.NullString  `db:"telephone"`
	Whatsapp           sql.NullString  `db:"whatsapp"`
	Email              sql.NullString  `db:"email"`
	Website            sql.NullString  `db:"website"`
	Latitude           sql.NullFloat64 `db:"latitude"`
	Longitude          sql.NullFloat64 `db:"longitude"`
	LogoURL            sql.NullString  `db:"logo_url"`
	OpeningDate        sql.NullTime    `db:"opening_date"`
	SubscriptionStatus string          `db:"subscription_status"`
	SubscriptionPlan   string          `db:"subscription_plan"`
	TrialEndsAt        sql.NullTime    `db:"trial_ends_at"`
	SubscriptionEndsAt sql.NullTime    `db:"subscription_ends_at"`
	LastPaymentAt      sql.NullTime    `db:"last_payment_at"`
	ExternalRef        sql.NullString  `db:"external_subscription_ref"`
	CreatorID          uuid.UUID       `db:"creator_id"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

func toDBBranch(bus branchbus.Branch) branchDB {
	p := bus.Profile
	sub := bus.Subscription

	return branchDB{
		ID:                 bus.ID,
		IDBranch:           bus.IDBranch,
		Slug:               bus.Slug,
		InviteCode:         bus.InviteCode,
		BranchCode:         bus.BranchCode,
		Name:               bus.Name,
		InternalName:       nullString(p.InternalName),
		CNPJ:               nullString(p.CNPJ),
		Address:            nullString(p.Address),
		Neighborhood:       nullString(p.Neighborhood),
		Number:             nullString(p.Number),
		Complement:         nullString(p.Complement),
		City:               nullString(p.City),
		State:              nullString(p.State),
		StateShort:         nullString(p.StateShort),
		ZipCode:            nullString(p.ZipCode),
		Telephone:          phone.ToSQLNullString(p.Telephone),
		Whatsapp:           phone.ToSQLNullString(p.Whatsapp),
		Email:              nullString(p.Email),
		Website:            nullString(p.Website),
		Latitude:           nullFloat(p.Latitude),
		Longitude:          nullFloat(p.Longitude),
		LogoURL:            nullString(p.LogoURL),
		OpeningDate:        nullTime(p.OpeningDate),
		SubscriptionStatus: sub.Status.String(),
		SubscriptionPlan:   sub.Plan.String(),
		TrialEndsAt:        nullTime(sub.TrialEndsAt),
		SubscriptionEndsAt: nullTime(sub.EndsAt),
		LastPaymentAt:      nullTime(sub.LastPaymentAt),
		ExternalRef:        nullString(sub.ExternalRef),
		CreatorID:          bus.CreatorID,
		CreatedAt:          bus.CreatedAt.UTC(),
		UpdatedAt:          bus.UpdatedAt.UTC(),
	}
}

func toBusBranch(db branchDB) (branchbus.Branch, error) {
	status, err := substatus.Parse(db.SubscriptionStatus)
	if err != nil {
		return branchbus.Branch{}, fmt.Errorf("parse status: %w", err)
	}

	p, err := plan.Parse(db.SubscriptionPlan)
	if err != nil {
		return branchbus.Branch{}, fmt.Errorf("parse plan: %w", err)
	}

	// Invalid stored numbers read as empty.
	tel, _ := phone.ParseNull(db.Telephone.String)
	wpp, _ := phone.ParseNull(db.Whatsapp.String)

	bus := branchbus.Branch{
		ID:         db.ID,
		IDBranch:   db.IDBranch,
		Slug:       db.Slug,
		InviteCode: db.InviteCode,
		BranchCode: db.BranchCode,
		Name:       db.Name,
		Profile: branchbus.Profile{
			InternalName: db.InternalName.String,
			CNPJ:         db.CNPJ.String,
			Address:      db.Address.String,
			Neighborhood: db.Neighborhood.String,
			Number:       db.Number.String,
			Complement:   db.Complement.String,
			City:         db.City.String,
			State:        db.State.String,
			StateShort:   db.StateShort.String,
			ZipCode:      db.ZipCode.String,
			Telephone:    tel,
			Whatsapp:     wpp,
			Email:        db.Email.String,
			Website:      db.Website.String,
			Latitude:     busFloat(db.Latitude),
			Longitude:    busFloat(db.Longitude),
			LogoURL:      db.LogoURL.String,
			OpeningDate:  busTime(db.OpeningDate),
		},
		Subscription: subscriptionbus.Subscription{
			Status:        status,
			Plan:          p,
			TrialEndsAt:   busTime(db.TrialEndsAt),
			EndsAt:        busTime(db.SubscriptionEndsAt),
			LastPaymentAt: busTime(db.LastPaymentAt),
			ExternalRef:   db.ExternalRef.String,
		},
		CreatorID: db.CreatorID,
		CreatedAt: db.CreatedAt.In(time.Local),
		UpdatedAt: db.UpdatedAt.In(time.Local),
	}

	return bus, nil
}

func toBusBranches(dbs []branchDB) ([]branchbus.Branch, error) {
	bus := make([]branchbus.Branch, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusBranch(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}

// =============================================================================

type siteDB struct {
	BranchID           uuid.UUID      `db:"branch_id"`
	Name               string         `db:"name"`
	Slug               string         `db:"slug"`
	LogoURL            sql.NullString `db:"logo_url"`
	Telephone          sql.NullString `db:"telephone"`
	SubscriptionStatus string         `db:"subscription_status"`
	SubscriptionPlan   string         `db:"subscription_plan"`
	TrialEndsAt        sql.NullTime   `db:"trial_ends_at"`
	SubscriptionEndsAt sql.NullTime   `db:"subscription_ends_at"`
	LastPaymentAt      sql.NullTime   `db:"last_payment_at"`
	Domains            string         `db:"domains"`
}

func toBusSite(db siteDB) (branchbus.Site, error) {
	status, err := substatus.Parse(db.SubscriptionStatus)
	if err != nil {
		return branchbus.Site{}, fmt.Errorf("parse status: %w", err)
	}

	p, err := plan.Parse(db.SubscriptionPlan)
	if err != nil {
		return branchbus.Site{}, fmt.Errorf("parse plan: %w", err)
	}

	tel, _ := phone.ParseNull(db.Telephone.String)

	var domains []string
	if db.Domains != "" {
		domains = strings.Split(db.Domains, ",")
	}

	return branchbus.Site{
		BranchID:  db.BranchID,
		Name:      db.Name,
		Slug:      db.Slug,
		LogoURL:   db.LogoURL.String,
		Telephone: tel,
		Subscription: subscriptionbus.Subscription{
			Status:        status,
			Plan:          p,
			TrialEndsAt:   busTime(db.TrialEndsAt),
			EndsAt:        busTime(db.SubscriptionEndsAt),
			LastPaymentAt: busTime(db.LastPaymentAt),
		},
		Domains: domains,
	}, nil
}

type pathDB struct {
	Site string `db:"site"`
}

func toBusPaths(dbs []pathDB) []branchbus.Path {
	bus := make([]branchbus.Path, len(dbs))
	for i, db := range dbs {
		bus[i] = branchbus.Path{Site: db.Site}
	}
	return bus
}

// =============================================================================

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func busFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func busTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.In(time.Local)
	return &t
}
