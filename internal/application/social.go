package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tabbli/accounts/internal/domain/entity"
)

// SocialSignInInput is the payload of a provider callback after the front
// end completed the provider's own flow. Secret must match the configured
// provider secret; SessionUserID is set when the caller already holds a
// valid session.
type SocialSignInInput struct {
	Provider    string
	Email       string
	Name        string
	ProviderUID string
	AccessToken string
	Secret      string

	SessionUserID string
}

// SocialSignInResult reports where to send the browser next. New is true
// when the sign-in created the account.
type SocialSignInResult struct {
	User        *entity.User
	New         bool
	RedirectURL string
	Tokens      *TokenPair
}

// ResolveSocial turns a provider assertion into a signed-in local account,
// creating one on first contact. Rules, in order:
//   - an already-authenticated caller is rejected outright;
//   - an assertion without an email is rejected (never guess identity);
//   - a bad or unconfigured provider secret is rejected;
//   - a known email signs into the existing account, even one that was
//     registered with a password;
//   - an unknown email gets a fresh active account with an unusable
//     password.
//
// The provider profile row is overwritten on every sign-in, so the link
// always reflects the latest provider identity (last login wins).
func (s *UserService) ResolveSocial(ctx context.Context, in SocialSignInInput) (*SocialSignInResult, error) {
	if in.SessionUserID != "" {
		return nil, ErrAlreadyAuthenticated
	}
	if NormalizeEmail(in.Email) == "" {
		return nil, ErrMissingEmail
	}

	backend, ok := s.backends.Social[in.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", in.Provider)
	}
	if sc, ok := backend.(interface{ SecretValid(string) bool }); ok && !sc.SecretValid(in.Secret) {
		return nil, ErrInvalidCredentials
	}

	u, err := backend.Authenticate(ctx, Assertion{Email: in.Email, Secret: in.Secret})
	if err != nil {
		return nil, err
	}

	created := false
	if u == nil {
		u, err = s.CreateUser(CreateUserInput{Email: in.Email, Name: in.Name})
		switch {
		case err == nil:
			created = true
			s.log.WithFields(logrus.Fields{
				"user":     u.ID,
				"provider": in.Provider,
			}).Info("account created via social sign-in")
		case errors.Is(err, ErrEmailTaken):
			// A concurrent sign-in created the account between the lookup
			// and the insert; sign into it instead.
			u, err = backend.Authenticate(ctx, Assertion{Email: in.Email, Secret: in.Secret})
			if err != nil {
				return nil, err
			}
			if u == nil {
				return nil, ErrInvalidCredentials
			}
		default:
			return nil, err
		}
	}

	if err := s.linkProfile(in, u); err != nil {
		return nil, err
	}

	pair, err := s.IssueTokens(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	s.touchLastLogin(u)

	redirect := s.loginRedirectURL
	if created {
		redirect = s.newAccountRedirectURL
	}
	return &SocialSignInResult{User: u, New: created, RedirectURL: redirect, Tokens: pair}, nil
}

func (s *UserService) linkProfile(in SocialSignInInput, u *entity.User) error {
	switch in.Provider {
	case entity.ProviderFacebook:
		return s.profiles.UpsertFacebook(&entity.FacebookProfile{
			UserID:      u.ID,
			AccessToken: in.AccessToken,
			ProviderUID: in.ProviderUID,
		})
	case entity.ProviderGoogle:
		return s.profiles.UpsertGoogle(&entity.GoogleProfile{
			UserID:      u.ID,
			ProviderUID: in.ProviderUID,
		})
	default:
		return fmt.Errorf("unknown provider %q", in.Provider)
	}
}

// SocialProfiles reports which providers are linked to a user, for the
// profile page.
func (s *UserService) SocialProfiles(userID string) (map[string]bool, error) {
	linked := map[string]bool{
		entity.ProviderFacebook: false,
		entity.ProviderGoogle:   false,
	}
	if fb, err := s.profiles.GetFacebookByUserID(userID); err == nil && fb != nil {
		linked[entity.ProviderFacebook] = true
	}
	if g, err := s.profiles.GetGoogleByUserID(userID); err == nil && g != nil {
		linked[entity.ProviderGoogle] = true
	}
	return linked, nil
}
