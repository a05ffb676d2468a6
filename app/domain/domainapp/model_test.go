package domainapp

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/business/domain/domainbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainValidate(t *testing.T) {
	err := NewDomain{}.Validate()
	require.Error(t, err)
	assert.Equal(t, "Domínio é obrigatório", errs.GetFieldErrors(err).Fields()["domain"])

	assert.NoError(t, NewDomain{Domain: "natacaocentro.com.br"}.Validate())
}

func TestToBusNewDomain(t *testing.T) {
	branchID := uuid.New()
	userID := uuid.New()

	nd := toBusNewDomain(NewDomain{
		Domain:   "www.natacaocentro.com.br",
		ApexName: "natacaocentro.com.br",
		Verification: []Verification{
			{Domain: "_vercel.natacaocentro.com.br", Value: "vc-domain-verify=abc"},
		},
	}, branchID, userID)

	assert.Equal(t, branchID, nd.BranchID)
	assert.Equal(t, userID, nd.AddedByID)
	assert.False(t, nd.Verified)
	require.Len(t, nd.Verification, 1)
	assert.Equal(t, "vc-domain-verify=abc", nd.Verification[0].Value)
}

func TestToAppCheckUnknown(t *testing.T) {
	c := toAppCheck("Novo.Example.com.", domainbus.CheckResult{})

	assert.Equal(t, Check{Name: "novo.example.com"}, c)
}
