package subscriptiondb

import (
	"bytes"

	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
)

func applyChange(ch subscriptionbus.Change, data map[string]any, buf *bytes.Buffer) {
	if ch.Plan != nil {
		data["subscription_plan"] = ch.Plan.String()
		buf.WriteString(",\n\t\tsubscription_plan = :subscription_plan")
	}

	if ch.TrialEndsAt != nil {
		data["trial_ends_at"] = ch.TrialEndsAt.UTC()
		buf.WriteString(",\n\t\ttrial_ends_at = :trial_ends_at")
	}

	if ch.EndsAt != nil {
		data["subscription_ends_at"] = ch.EndsAt.UTC()
		buf.WriteString(",\n\t\tsubscription_ends_at = :subscription_ends_at")
	}

	if ch.LastPaymentAt != nil {
		data["last_payment_at"] = ch.LastPaymentAt.UTC()
		buf.WriteString(",\n\t\tlast_payment_at = :last_payment_at")
	}

	switch {
	case ch.ClearExternalRef:
		buf.WriteString(",\n\t\texternal_subscription_ref = NULL")
	case ch.ExternalRef != nil:
		data["external_subscription_ref"] = *ch.ExternalRef
		buf.WriteString(",\n\t\texternal_subscription_ref = :external_subscription_ref")
	}
}
