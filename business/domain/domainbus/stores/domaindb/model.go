package domaindb

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/domainbus"
)

type domainDB struct {
	ID        uuid.UUID      `db:"domain_id"`
	Name      string         `db:"name"`
	Subdomain sql.NullString `db:"subdomain"`
	Value     sql.NullString `db:"value"`
	Verified  bool           `db:"verified"`
	BranchID  uuid.UUID      `db:"branch_id"`
	AddedByID uuid.NullUUID  `db:"added_by_id"`
	CreatedAt time.Time      `db:"created_at"`
}

func toDBDomain(bus domainbus.Domain) domainDB {
	return domainDB{
		ID:        bus.ID,
		Name:      bus.Name,
		Subdomain: sql.NullString{String: bus.Subdomain, Valid: bus.Subdomain != ""},
		Value:     sql.NullString{String: bus.Value, Valid: bus.Value != ""},
		Verified:  bus.Verified,
		BranchID:  bus.BranchID,
		AddedByID: uuid.NullUUID{UUID: bus.AddedByID, Valid: bus.AddedByID != uuid.Nil},
		CreatedAt: bus.CreatedAt.UTC(),
	}
}

func toBusDomain(db domainDB) domainbus.Domain {
	return domainbus.Domain{
		ID:        db.ID,
		Name:      db.Name,
		Subdomain: db.Subdomain.String,
		Value:     db.Value.String,
		Verified:  db.Verified,
		BranchID:  db.BranchID,
		AddedByID: db.AddedByID.UUID,
		CreatedAt: db.CreatedAt.In(time.Local),
	}
}

func toBusDomains(dbs []domainDB) []domainbus.Domain {
	bus := make([]domainbus.Domain, len(dbs))
	for i, db := range dbs {
		bus[i] = toBusDomain(db)
	}
	return bus
}
