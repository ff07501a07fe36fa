package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabbli/accounts/internal/domain/entity"
	"github.com/tabbli/accounts/pkg/helpers"
)

func seedUser(t *testing.T, users *memUserRepo, email, password string, active bool) *entity.User {
	t.Helper()
	hash := helpers.UnusablePassword
	if password != "" {
		var err error
		hash, err = helpers.HashPassword(password)
		require.NoError(t, err)
	}
	u := &entity.User{Email: email, Password: hash, IsActive: active}
	require.NoError(t, users.Create(u))
	return u
}

func TestPasswordBackendMatches(t *testing.T) {
	users := newMemUserRepo()
	seedUser(t, users, "kim@example.com", "pw123456", true)
	b := &PasswordBackend{Users: users}

	u, err := b.Authenticate(context.Background(), Assertion{Email: "KIM@example.com", Password: "pw123456"})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "kim@example.com", u.Email)
}

func TestPasswordBackendNoMatchCases(t *testing.T) {
	users := newMemUserRepo()
	seedUser(t, users, "kim@example.com", "pw123456", true)
	seedUser(t, users, "off@example.com", "pw123456", false)
	seedUser(t, users, "social@example.com", "", true)
	b := &PasswordBackend{Users: users}
	ctx := context.Background()

	cases := []struct {
		name string
		in   Assertion
	}{
		{"unknown email", Assertion{Email: "nobody@example.com", Password: "pw123456"}},
		{"wrong password", Assertion{Email: "kim@example.com", Password: "nope"}},
		{"inactive account", Assertion{Email: "off@example.com", Password: "pw123456"}},
		{"unusable password", Assertion{Email: "social@example.com", Password: ""}},
		{"empty email", Assertion{Password: "pw123456"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := b.Authenticate(ctx, tc.in)
			assert.NoError(t, err)
			assert.Nil(t, u)
		})
	}
}

func TestSecretBackendGate(t *testing.T) {
	users := newMemUserRepo()
	seedUser(t, users, "g@example.com", "", true)
	b := NewGoogleBackend(users, "topsecret")
	ctx := context.Background()

	u, err := b.Authenticate(ctx, Assertion{Email: "g@example.com", Secret: "topsecret"})
	require.NoError(t, err)
	require.NotNil(t, u)

	u, err = b.Authenticate(ctx, Assertion{Email: "g@example.com", Secret: "wrong"})
	assert.NoError(t, err)
	assert.Nil(t, u)

	// Unknown email with a valid secret is a miss, not an error; the
	// sign-in flow turns it into account creation.
	u, err = b.Authenticate(ctx, Assertion{Email: "new@example.com", Secret: "topsecret"})
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestSecretBackendDisabledWhenUnconfigured(t *testing.T) {
	users := newMemUserRepo()
	seedUser(t, users, "g@example.com", "", true)
	b := NewFacebookBackend(users, "")

	u, err := b.Authenticate(context.Background(), Assertion{Email: "g@example.com", Secret: ""})
	assert.NoError(t, err)
	assert.Nil(t, u)

	sc, ok := b.(interface{ SecretValid(string) bool })
	require.True(t, ok)
	assert.False(t, sc.SecretValid(""))
}

func TestBackendLookupByID(t *testing.T) {
	users := newMemUserRepo()
	u := seedUser(t, users, "kim@example.com", "pw123456", true)
	b := &PasswordBackend{Users: users}
	ctx := context.Background()

	got, err := b.LookupByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	got, err = b.LookupByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
