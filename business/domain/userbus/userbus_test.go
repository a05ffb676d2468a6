package userbus_test

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/business/types/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps users by email and mirrors the rules of the SQL store: claim
// only touches password-less rows and placeholders skip taken emails.
type memStore struct {
	users  map[string]userbus.User
	claims int
}

func newMemStore(usrs ...userbus.User) *memStore {
	s := memStore{users: make(map[string]userbus.User)}
	for _, u := range usrs {
		s.users[u.Email.Address] = u
	}
	return &s
}

func (s *memStore) NewWithTx(sqldb.CommitRollbacker) (userbus.Storer, error) {
	return s, nil
}

func (s *memStore) Create(_ context.Context, usr userbus.User) error {
	if _, ok := s.users[usr.Email.Address]; ok {
		return userbus.ErrUniqueEmail
	}
	s.users[usr.Email.Address] = usr
	return nil
}

func (s *memStore) Claim(_ context.Context, usr userbus.User) error {
	cur, ok := s.users[usr.Email.Address]
	if !ok || cur.ID != usr.ID || !cur.Placeholder() {
		return userbus.ErrUniqueEmail
	}
	s.claims++
	s.users[usr.Email.Address] = usr
	return nil
}

func (s *memStore) CreatePlaceholders(_ context.Context, usrs []userbus.User) (int64, error) {
	var n int64
	for _, u := range usrs {
		if _, ok := s.users[u.Email.Address]; ok {
			continue
		}
		s.users[u.Email.Address] = u
		n++
	}
	return n, nil
}

func (s *memStore) Update(_ context.Context, usr userbus.User) error {
	s.users[usr.Email.Address] = usr
	return nil
}

func (s *memStore) QueryByID(_ context.Context, userID uuid.UUID) (userbus.User, error) {
	for _, u := range s.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return userbus.User{}, userbus.ErrNotFound
}

func (s *memStore) QueryByEmail(_ context.Context, email mail.Address) (userbus.User, error) {
	u, ok := s.users[email.Address]
	if !ok {
		return userbus.User{}, userbus.ErrNotFound
	}
	return u, nil
}

// =============================================================================

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newCore(store *memStore) *userbus.Core {
	return userbus.NewCore(store).WithClock(func() time.Time { return now })
}

func newUser(email string) userbus.NewUser {
	return userbus.NewUser{
		Name:     "Marina Souza",
		Email:    mail.Address{Address: email},
		Role:     role.User,
		Password: "segredo123",
	}
}

func TestCreate(t *testing.T) {
	store := newMemStore()
	core := newCore(store)

	usr, err := core.Create(context.Background(), newUser("marina@raia.com.br"))
	require.NoError(t, err)

	assert.Equal(t, "Marina Souza", usr.Name)
	assert.True(t, usr.Enabled)
	assert.False(t, usr.Placeholder())
	assert.NotEqual(t, []byte("segredo123"), usr.PasswordHash)
	assert.Equal(t, now, usr.CreatedAt)
	assert.Zero(t, store.claims)
}

func TestCreateClaimsPlaceholder(t *testing.T) {
	store := newMemStore()
	core := newCore(store)
	ctx := context.Background()

	n, err := core.CreatePlaceholders(ctx, []mail.Address{{Address: "marina@raia.com.br"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	placeholder := store.users["marina@raia.com.br"]
	require.True(t, placeholder.Placeholder())
	assert.Equal(t, "marina", placeholder.Name)

	usr, err := core.Create(ctx, newUser("marina@raia.com.br"))
	require.NoError(t, err)

	assert.Equal(t, placeholder.ID, usr.ID, "registration keeps the invited row")
	assert.Equal(t, "Marina Souza", usr.Name)
	assert.False(t, usr.Placeholder())
	assert.Equal(t, 1, store.claims)
}

func TestCreateDuplicateEmail(t *testing.T) {
	store := newMemStore()
	core := newCore(store)
	ctx := context.Background()

	_, err := core.Create(ctx, newUser("marina@raia.com.br"))
	require.NoError(t, err)

	_, err = core.Create(ctx, newUser("marina@raia.com.br"))
	assert.ErrorIs(t, err, userbus.ErrUniqueEmail)
	assert.Zero(t, store.claims)
}

func TestCreatePlaceholdersSkipsExisting(t *testing.T) {
	store := newMemStore()
	core := newCore(store)
	ctx := context.Background()

	_, err := core.Create(ctx, newUser("marina@raia.com.br"))
	require.NoError(t, err)

	n, err := core.CreatePlaceholders(ctx, []mail.Address{
		{Address: "marina@raia.com.br"},
		{Name: "Joana", Address: "joana@raia.com.br"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), n)
	assert.Equal(t, "Joana", store.users["joana@raia.com.br"].Name)
	assert.False(t, store.users["marina@raia.com.br"].Placeholder())

	n, err = core.CreatePlaceholders(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAuthenticate(t *testing.T) {
	store := newMemStore()
	core := newCore(store)
	ctx := context.Background()

	_, err := core.Create(ctx, newUser("marina@raia.com.br"))
	require.NoError(t, err)

	usr, err := core.Authenticate(ctx, mail.Address{Address: "marina@raia.com.br"}, "segredo123")
	require.NoError(t, err)
	assert.Equal(t, "Marina Souza", usr.Name)

	_, err = core.Authenticate(ctx, mail.Address{Address: "marina@raia.com.br"}, "errada")
	assert.ErrorIs(t, err, userbus.ErrAuthenticationFailure)

	_, err = core.Authenticate(ctx, mail.Address{Address: "ninguem@raia.com.br"}, "segredo123")
	assert.ErrorIs(t, err, userbus.ErrNotFound)
}

func TestAuthenticateRejectsPlaceholder(t *testing.T) {
	store := newMemStore()
	core := newCore(store)
	ctx := context.Background()

	_, err := core.CreatePlaceholders(ctx, []mail.Address{{Address: "convidado@raia.com.br"}})
	require.NoError(t, err)

	_, err = core.Authenticate(ctx, mail.Address{Address: "convidado@raia.com.br"}, "")
	assert.ErrorIs(t, err, userbus.ErrAuthenticationFailure)
}

func TestUpdate(t *testing.T) {
	store := newMemStore()
	core := newCore(store)
	ctx := context.Background()

	usr, err := core.Create(ctx, newUser("marina@raia.com.br"))
	require.NoError(t, err)

	later := now.Add(time.Hour)
	core = core.WithClock(func() time.Time { return later })

	name := "Marina S."
	pass := "nova-senha"

	got, err := core.Update(ctx, usr, userbus.UpdateUser{Name: &name, Password: &pass})
	require.NoError(t, err)

	assert.Equal(t, name, got.Name)
	assert.True(t, got.Enabled)
	assert.Equal(t, later, got.UpdatedAt)

	_, err = core.Authenticate(ctx, usr.Email, "nova-senha")
	assert.NoError(t, err)
}
