package domainapp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/business/domain/domainbus"
)

// Domain represents a custom domain of a branch.
type Domain struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	Value     string `json:"value"`
	Verified  bool   `json:"verified"`
	CreatedAt string `json:"createdAt"`
}

func toAppDomain(bus domainbus.Domain) Domain {
	return Domain{
		ID:        bus.ID.String(),
		Name:      bus.Name,
		Subdomain: bus.Subdomain,
		Value:     bus.Value,
		Verified:  bus.Verified,
		CreatedAt: bus.CreatedAt.Format(time.RFC3339),
	}
}

// DomainsResult wraps the domains of a branch.
type DomainsResult struct {
	Domains []Domain `json:"domains"`
}

func toAppDomains(bus []domainbus.Domain) DomainsResult {
	app := make([]Domain, len(bus))
	for i, d := range bus {
		app[i] = toAppDomain(d)
	}
	return DomainsResult{Domains: app}
}

// DomainResult wraps a single domain.
type DomainResult struct {
	Domain Domain `json:"domain"`
}

// Check is the verification state of a hostname.
type Check struct {
	Name      string `json:"name"`
	Subdomain string `json:"subdomain,omitempty"`
	Value     string `json:"value,omitempty"`
	Verified  bool   `json:"verified"`
}

func toAppCheck(name string, bus domainbus.CheckResult) Check {
	if bus.Name == "" {
		return Check{Name: domainbus.Normalize(name)}
	}

	return Check{
		Name:      bus.Name,
		Subdomain: bus.Subdomain,
		Value:     bus.Value,
		Verified:  bus.Verified,
	}
}

// =============================================================================

// Verification is a DNS record reported by the hosting provider.
type Verification struct {
	Domain string `json:"domain"`
	Value  string `json:"value"`
}

// NewDomain defines the data needed to add a domain to a branch.
type NewDomain struct {
	Domain       string         `json:"domain" validate:"omitempty,hostname_rfc1123"`
	ApexName     string         `json:"apexName"`
	Verified     bool           `json:"verified"`
	Verification []Verification `json:"verification"`
}

// Decode implements the web.Decoder interface.
func (app *NewDomain) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewDomain) Validate() error {
	if strings.TrimSpace(app.Domain) == "" {
		return errs.FieldErrors{{Field: "domain", Err: "Domínio é obrigatório"}}
	}

	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewDomain(app NewDomain, branchID uuid.UUID, addedBy uuid.UUID) domainbus.NewDomain {
	vs := make([]domainbus.Verification, len(app.Verification))
	for i, v := range app.Verification {
		vs[i] = domainbus.Verification{Domain: v.Domain, Value: v.Value}
	}

	return domainbus.NewDomain{
		Name:         app.Domain,
		ApexName:     app.ApexName,
		Verified:     app.Verified,
		Verification: vs,
		BranchID:     branchID,
		AddedByID:    addedBy,
	}
}

// DomainName identifies a domain of the branch.
type DomainName struct {
	Domain string `json:"domain"`
}

// Decode implements the web.Decoder interface.
func (app *DomainName) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app DomainName) Validate() error {
	if strings.TrimSpace(app.Domain) == "" {
		return errs.FieldErrors{{Field: "domain", Err: "Domínio é obrigatório"}}
	}

	return nil
}

// VerifiedResult is returned after a domain is verified.
type VerifiedResult struct {
	Domain   string `json:"domain"`
	Verified bool   `json:"verified"`
}

// DeletedResult is returned after a domain is removed.
type DeletedResult struct {
	Domain string `json:"domain"`
}
