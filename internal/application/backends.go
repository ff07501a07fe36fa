package application

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/tabbli/accounts/internal/domain/entity"
	"github.com/tabbli/accounts/internal/domain/repository"
	"github.com/tabbli/accounts/pkg/helpers"
)

// Assertion is an inbound credential claim handed to a Backend. Password
// carries the plain password for the password backend; Secret carries the
// shared provider secret for the social backends.
type Assertion struct {
	Email    string
	Password string
	Secret   string
}

// Backend resolves an external credential assertion to a local user.
// A nil user with a nil error means "no match"; backends deliberately do
// not distinguish unknown email from bad credentials.
type Backend interface {
	Name() string
	Authenticate(ctx context.Context, a Assertion) (*entity.User, error)
	LookupByID(ctx context.Context, id string) (*entity.User, error)
}

// PasswordBackend authenticates against the stored bcrypt hash. Inactive
// accounts and unusable passwords fail closed.
type PasswordBackend struct {
	Users repository.UserRepository
}

func (b *PasswordBackend) Name() string { return "password" }

func (b *PasswordBackend) Authenticate(ctx context.Context, a Assertion) (*entity.User, error) {
	if a.Email == "" {
		return nil, nil
	}
	u, err := b.Users.GetByEmail(a.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, nil
	}
	if !helpers.CompareHashAndPassword(u.Password, a.Password) {
		return nil, nil
	}
	return u, nil
}

func (b *PasswordBackend) LookupByID(ctx context.Context, id string) (*entity.User, error) {
	return lookupByID(b.Users, id)
}

// secretBackend is the shared shape of the Facebook and Google backends:
// the caller must present the configured provider secret, then the user is
// resolved by email. The secret-equality gate stands in for provider token
// verification, which happens upstream; an empty configured secret
// disables the backend entirely.
type secretBackend struct {
	name   string
	secret string
	users  repository.UserRepository
}

func (b *secretBackend) Name() string { return b.name }

// SecretValid reports whether the presented secret matches the configured
// one. Sign-in flows use it to tell a rejected caller apart from an
// unknown email before deciding to create an account.
func (b *secretBackend) SecretValid(secret string) bool {
	if b.secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(b.secret)) == 1
}

func (b *secretBackend) Authenticate(ctx context.Context, a Assertion) (*entity.User, error) {
	if a.Email == "" {
		return nil, nil
	}
	if b.secret == "" || subtle.ConstantTimeCompare([]byte(a.Secret), []byte(b.secret)) != 1 {
		return nil, nil
	}
	u, err := b.users.GetByEmail(a.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (b *secretBackend) LookupByID(ctx context.Context, id string) (*entity.User, error) {
	return lookupByID(b.users, id)
}

// NewFacebookBackend resolves users asserted by a Facebook login payload.
func NewFacebookBackend(users repository.UserRepository, appSecret string) Backend {
	return &secretBackend{name: entity.ProviderFacebook, secret: appSecret, users: users}
}

// NewGoogleBackend resolves users asserted by a Google login payload.
func NewGoogleBackend(users repository.UserRepository, clientSecret string) Backend {
	return &secretBackend{name: entity.ProviderGoogle, secret: clientSecret, users: users}
}

func lookupByID(users repository.UserRepository, id string) (*entity.User, error) {
	u, err := users.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// Backends is the explicit, constructed list of active backends. It is
// built once at startup and injected where needed instead of living in a
// package-global registry.
type Backends struct {
	Password Backend
	Social   map[string]Backend
}

func NewBackends(users repository.UserRepository, facebookSecret, googleSecret string) *Backends {
	return &Backends{
		Password: &PasswordBackend{Users: users},
		Social: map[string]Backend{
			entity.ProviderFacebook: NewFacebookBackend(users, facebookSecret),
			entity.ProviderGoogle:   NewGoogleBackend(users, googleSecret),
		},
	}
}
