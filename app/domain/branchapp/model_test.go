package branchapp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/types/substatus"
	"github.com/jcpaschoal/painel-swim/business/types/teamrole"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
		value float64
		err   bool
	}{
		{name: "number", input: `-23.55`, valid: true, value: -23.55},
		{name: "string", input: `"-46.63"`, valid: true, value: -46.63},
		{name: "padded string", input: `" 12.5 "`, valid: true, value: 12.5},
		{name: "null", input: `null`},
		{name: "empty string", input: `""`},
		{name: "garbage", input: `"abc"`, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Coordinate
			err := json.Unmarshal([]byte(tt.input), &c)
			if tt.err {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.valid, c.Valid)
			assert.InDelta(t, tt.value, c.V, 1e-9)
		})
	}
}

func TestUpdateBranchClearsCoordinates(t *testing.T) {
	var app UpdateBranch
	require.NoError(t, app.Decode([]byte(`{"latitude": null, "longitude": "-46.6"}`)))

	ub, err := toBusUpdateBranch(app)
	require.NoError(t, err)

	require.NotNil(t, ub.Latitude)
	assert.False(t, ub.Latitude.Valid)

	require.NotNil(t, ub.Longitude)
	assert.True(t, ub.Longitude.Valid)
	assert.InDelta(t, -46.6, ub.Longitude.V, 1e-9)

	assert.Nil(t, ub.Name, "absent fields stay untouched")
}

func TestUpdateBranchKeepsAbsentCoordinates(t *testing.T) {
	var app UpdateBranch
	require.NoError(t, app.Decode([]byte(`{"name": "Unidade Sul", "longitude": null}`)))

	ub, err := toBusUpdateBranch(app)
	require.NoError(t, err)

	assert.Nil(t, ub.Latitude)

	require.NotNil(t, ub.Longitude)
	assert.False(t, ub.Longitude.Valid)
}

func TestUpdateBranchBadPhone(t *testing.T) {
	bad := "not a phone"
	_, err := toBusUpdateBranch(UpdateBranch{Telephone: &bad})
	require.Error(t, err)

	fe, ok := err.(errs.FieldErrors)
	require.True(t, ok)
	assert.Equal(t, "telephone", fe[0].Field)
}

func TestNewBranchValidate(t *testing.T) {
	err := NewBranch{Name: "  "}.Validate()
	require.Error(t, err)
	assert.True(t, errs.IsFieldErrors(err))
	assert.Equal(t, "Nome é obrigatório", errs.GetFieldErrors(err).Fields()["name"])

	assert.NoError(t, NewBranch{Name: "Unidade Centro"}.Validate())
}

func TestToBusNewBranch(t *testing.T) {
	creator := uuid.New()

	nb, err := toBusNewBranch(NewBranch{Name: " Unidade Centro ", Telephone: "(11) 98888-7777"}, creator)
	require.NoError(t, err)

	assert.Equal(t, "Unidade Centro", nb.Name)
	assert.Equal(t, creator, nb.CreatorID)
	assert.True(t, nb.Profile.Telephone.Valid())
	assert.False(t, nb.Profile.Whatsapp.Valid())
}

func TestToBusNewInvites(t *testing.T) {
	invites, err := toBusNewInvites(NewInvites{Members: []NewInvite{
		{Email: "Ana@Example.com"},
		{Email: "bia@example.com", TeamRole: "owner"},
	}})
	require.NoError(t, err)
	require.Len(t, invites, 2)

	assert.Equal(t, "ana@example.com", invites[0].Email.Address)
	assert.Equal(t, teamrole.Member, invites[0].TeamRole)
	assert.Equal(t, teamrole.Owner, invites[1].TeamRole)

	_, err = toBusNewInvites(NewInvites{Members: []NewInvite{{Email: "x@example.com", TeamRole: "boss"}}})
	assert.Error(t, err)
}

func TestToAppSubscription(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ends := now.Add(72 * time.Hour)

	sub := toAppSubscription(subscriptionbus.Subscription{
		Status:      substatus.Trial,
		TrialEndsAt: &ends,
	}, now)

	assert.True(t, sub.HasAccess)
	assert.Equal(t, 3, sub.TrialDaysLeft)
	require.NotNil(t, sub.TrialEndsAt)
	assert.Equal(t, ends.Format(time.RFC3339), *sub.TrialEndsAt)
	assert.Nil(t, sub.EndsAt)
}

func TestToAppInviteLink(t *testing.T) {
	id := uuid.New()
	link := toAppInviteLink(branchbus.Branch{ID: id, Name: "Centro", Slug: "centro", BranchCode: "AB12CD"})

	assert.Equal(t, InviteLink{ID: id.String(), Name: "Centro", Slug: "centro", BranchCode: "AB12CD"}, link)
}
