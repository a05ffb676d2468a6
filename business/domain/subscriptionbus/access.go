package subscriptionbus

import (
	"fmt"
	"math"
	"time"

	"github.com/jcpaschoal/painel-swim/business/types/substatus"
)

// Display categories returned by Message.
const (
	CategoryTrial     = "trial"
	CategoryExpired   = "expired"
	CategoryActive    = "active"
	CategoryWarning   = "warning"
	CategoryBlocked   = "blocked"
	CategoryCancelled = "cancelled"
	CategoryUnknown   = "unknown"
	CategoryError     = "error"
)

// HasAccess reports whether a branch may use the system at the given instant.
// PAST_DUE is a grace period and still grants access. A TRIAL without an end
// date is treated as open.
func HasAccess(sub *Subscription, now time.Time) bool {
	if sub == nil {
		return false
	}

	if !sub.Status.GrantsAccess() {
		return false
	}

	if sub.Status.Equal(substatus.Trial) && sub.TrialEndsAt != nil {
		return now.Before(*sub.TrialEndsAt)
	}

	return true
}

// TrialDaysLeft rounds the remaining trial time up to whole days. It is zero
// or negative once the trial is over.
func TrialDaysLeft(sub Subscription, now time.Time) int {
	if sub.TrialEndsAt == nil {
		return 0
	}

	days := sub.TrialEndsAt.Sub(now).Hours() / 24
	return int(math.Ceil(days))
}

// Message maps a subscription to its display category and message. A TRIAL
// past its end date reads as expired even before the sweep flips it.
func Message(sub *Subscription, now time.Time) StatusMessage {
	if sub == nil {
		return StatusMessage{Category: CategoryError, Message: "Academia não encontrada"}
	}

	switch sub.Status {
	case substatus.Trial:
		days := TrialDaysLeft(*sub, now)
		if days <= 0 {
			return StatusMessage{Category: CategoryExpired, Message: "Período de teste expirado. Assine para continuar."}
		}
		return StatusMessage{Category: CategoryTrial, Message: fmt.Sprintf("%d dias restantes no período de teste", days)}

	case substatus.Active:
		return StatusMessage{Category: CategoryActive, Message: "Assinatura ativa"}

	case substatus.PastDue:
		return StatusMessage{Category: CategoryWarning, Message: "Pagamento pendente. Regularize para evitar suspensão."}

	case substatus.Suspended:
		return StatusMessage{Category: CategoryBlocked, Message: "Acesso suspenso por falta de pagamento."}

	case substatus.Cancelled:
		return StatusMessage{Category: CategoryCancelled, Message: "Assinatura cancelada."}
	}

	return StatusMessage{Category: CategoryUnknown, Message: "Status desconhecido"}
}
