package application

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// callers must not be able to tell the two apart.
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSessionExpired       = errors.New("session expired")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrMissingEmail         = errors.New("missing email")
	ErrUnknownInvite        = errors.New("unknown invite code")
	ErrInviteConsumed       = errors.New("invite code already used")
	ErrAlreadyAuthenticated = errors.New("already logged in")
)
