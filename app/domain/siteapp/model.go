package siteapp

import (
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
)

// Site is the public projection of a branch.
type Site struct {
	Name      string        `json:"name"`
	Slug      string        `json:"slug"`
	LogoURL   string        `json:"logoUrl"`
	Telephone string        `json:"telephone"`
	Dial      string        `json:"dial,omitempty"`
	Path      string        `json:"path"`
	HasAccess bool          `json:"hasAccess"`
	Status    StatusMessage `json:"status"`
}

// StatusMessage tells visitors why a site is unavailable.
type StatusMessage struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// SiteResult wraps the site.
type SiteResult struct {
	Site Site `json:"site"`
}

func toAppSite(bus branchbus.Site, path string, subBus *subscriptionbus.Core) SiteResult {
	msg := subBus.Message(&bus.Subscription)

	s := Site{
		Name:      bus.Name,
		Slug:      bus.Slug,
		LogoURL:   bus.LogoURL,
		Telephone: bus.Telephone.String(),
		Path:      "/" + path,
		HasAccess: subBus.HasAccess(&bus.Subscription),
		Status: StatusMessage{
			Category: msg.Category,
			Message:  msg.Message,
		},
	}

	if bus.Telephone.Valid() {
		s.Dial = bus.Telephone.Digits()
	}

	return SiteResult{Site: s}
}
