package entity

import (
	"strings"
	"time"
)

// Default placeholder values for lazily derived avatar fields. A user whose
// avatar_text or avatar_color still holds the placeholder gets a derived
// value on the next save and never again afterward.
const (
	DefaultAvatarText  = "XX"
	DefaultAvatarColor = "#cccccc"
)

// User is the aggregate root for the accounts domain. Email is the sole
// login identifier and is unique case-insensitively.
//
// Password holds a bcrypt hash, or the unusable-password sentinel for
// accounts created through social sign-in.
type User struct {
	ID       string
	Email    string
	Password string
	Name     string

	Role  string
	Phone string

	// Free-form JSON data bag, stored as jsonb
	Data map[string]any

	Language string
	TimeZone string

	AvatarURL   string
	AvatarText  string // two letters shown when no avatar image is set
	AvatarColor string // hex background color for the generated avatar

	IsInternal      bool
	IsAdministrator bool
	IsReadonly      bool
	IsStaff         bool
	IsSuperuser     bool
	IsActive        bool

	OneTimeLinkSupport       bool
	PermanentActivationLink  bool
	PermanentActivationToken string

	HiddenSectionKeys []string
	HiddenSiteKeys    []string

	Groups []UserGroup

	DateJoined time.Time
	LastLogin  time.Time
	UpdatedAt  time.Time
}

// FirstName returns the first whitespace-separated chunk of the name.
func (u *User) FirstName() string {
	chunks := strings.Fields(u.Name)
	if len(chunks) >= 1 {
		return chunks[0]
	}
	return ""
}

// LastName returns the second whitespace-separated chunk of the name.
func (u *User) LastName() string {
	chunks := strings.Fields(u.Name)
	if len(chunks) >= 2 {
		return chunks[1]
	}
	return ""
}

// DaysOnSite reports how many whole days have passed since registration.
func (u *User) DaysOnSite() int {
	return int(time.Since(u.DateJoined).Hours() / 24)
}
