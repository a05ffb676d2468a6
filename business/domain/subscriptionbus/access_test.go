package subscriptionbus_test

import (
	"testing"
	"time"

	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/types/substatus"
	"github.com/stretchr/testify/assert"
)

func TestHasAccess(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		sub  *subscriptionbus.Subscription
		want bool
	}{
		{"nil", nil, false},
		{"trial running", &subscriptionbus.Subscription{Status: substatus.Trial, TrialEndsAt: &future}, true},
		{"trial ended", &subscriptionbus.Subscription{Status: substatus.Trial, TrialEndsAt: &past}, false},
		{"trial ends now", &subscriptionbus.Subscription{Status: substatus.Trial, TrialEndsAt: &now}, false},
		{"trial without end", &subscriptionbus.Subscription{Status: substatus.Trial}, true},
		{"active", &subscriptionbus.Subscription{Status: substatus.Active, EndsAt: &past}, true},
		{"past due", &subscriptionbus.Subscription{Status: substatus.PastDue}, true},
		{"suspended", &subscriptionbus.Subscription{Status: substatus.Suspended, TrialEndsAt: &future}, false},
		{"cancelled", &subscriptionbus.Subscription{Status: substatus.Cancelled, EndsAt: &future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, subscriptionbus.HasAccess(tt.sub, now))
		})
	}
}

func TestMessage(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	inThreeDays := now.Add(60 * time.Hour)
	past := now.Add(-time.Minute)

	tests := []struct {
		name     string
		sub      *subscriptionbus.Subscription
		category string
		message  string
	}{
		{"nil", nil, subscriptionbus.CategoryError, "Academia não encontrada"},
		{"trial", &subscriptionbus.Subscription{Status: substatus.Trial, TrialEndsAt: &inThreeDays}, subscriptionbus.CategoryTrial, "3 dias restantes no período de teste"},
		{"trial over", &subscriptionbus.Subscription{Status: substatus.Trial, TrialEndsAt: &past}, subscriptionbus.CategoryExpired, "Período de teste expirado. Assine para continuar."},
		{"active", &subscriptionbus.Subscription{Status: substatus.Active}, subscriptionbus.CategoryActive, "Assinatura ativa"},
		{"past due", &subscriptionbus.Subscription{Status: substatus.PastDue}, subscriptionbus.CategoryWarning, "Pagamento pendente. Regularize para evitar suspensão."},
		{"suspended", &subscriptionbus.Subscription{Status: substatus.Suspended}, subscriptionbus.CategoryBlocked, "Acesso suspenso por falta de pagamento."},
		{"cancelled", &subscriptionbus.Subscription{Status: substatus.Cancelled}, subscriptionbus.CategoryCancelled, "Assinatura cancelada."},
		{"unknown", &subscriptionbus.Subscription{}, subscriptionbus.CategoryUnknown, "Status desconhecido"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := subscriptionbus.Message(tt.sub, now)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.message, got.Message)
		})
	}
}

func TestTrialDaysLeft(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	end := now.AddDate(0, 0, subscriptionbus.TrialDays)

	assert.Equal(t, 14, subscriptionbus.TrialDaysLeft(subscriptionbus.Subscription{TrialEndsAt: &end}, now))
	assert.Equal(t, 1, subscriptionbus.TrialDaysLeft(subscriptionbus.Subscription{TrialEndsAt: &end}, end.Add(-time.Minute)))
	assert.Equal(t, 0, subscriptionbus.TrialDaysLeft(subscriptionbus.Subscription{}, now))
}
