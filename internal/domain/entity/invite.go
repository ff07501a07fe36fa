package entity

import "time"

// InviteCodeLength is the length of generated invite codes.
const InviteCodeLength = 30

// UserInvite is a pre-authorized registration token. Once RegisteredUserID
// is set the invite is consumed and cannot be used again.
type UserInvite struct {
	ID    string
	Code  string // unique, lowercase ASCII letters
	Email string

	GroupIDs []string

	IsInternal      bool
	IsAdministrator bool

	SentByID         string // optional; empty when created by the system
	RegisteredUserID string // set at most once
	RegistrationDate *time.Time

	Added time.Time
}

// Consumed reports whether a user has already registered with this invite.
func (i *UserInvite) Consumed() bool {
	return i.RegisteredUserID != ""
}

// RegistrationURL builds the public registration link embedded in the
// invite email.
func (i *UserInvite) RegistrationURL(siteURL string) string {
	return siteURL + "/register?invite_code=" + i.Code
}
