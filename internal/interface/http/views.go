package handlers

import (
	"time"

	"github.com/tabbli/accounts/internal/domain/entity"
)

type groupView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	Role     string         `json:"role,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	Language string         `json:"language,omitempty"`
	TimeZone string         `json:"timezone,omitempty"`
	Data     map[string]any `json:"data,omitempty"`

	AvatarURL   string `json:"avatar_url,omitempty"`
	AvatarText  string `json:"avatar_text"`
	AvatarColor string `json:"avatar_color"`

	IsInternal      bool `json:"is_internal"`
	IsAdministrator bool `json:"is_administrator"`
	IsReadonly      bool `json:"is_readonly"`
	IsActive        bool `json:"is_active"`

	HiddenSectionKeys []string    `json:"hidden_section_keys,omitempty"`
	HiddenSiteKeys    []string    `json:"hidden_site_keys,omitempty"`
	Groups            []groupView `json:"groups"`

	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	DaysOnSite int        `json:"days_on_site"`
}

func viewUser(u *entity.User) userView {
	groups := make([]groupView, 0, len(u.Groups))
	for _, g := range u.Groups {
		groups = append(groups, groupView{ID: g.ID, Name: g.Name})
	}
	v := userView{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		FirstName:         u.FirstName(),
		LastName:          u.LastName(),
		Role:              u.Role,
		Phone:             u.Phone,
		Language:          u.Language,
		TimeZone:          u.TimeZone,
		Data:              u.Data,
		AvatarURL:         u.AvatarURL,
		AvatarText:        u.AvatarText,
		AvatarColor:       u.AvatarColor,
		IsInternal:        u.IsInternal,
		IsAdministrator:   u.IsAdministrator,
		IsReadonly:        u.IsReadonly,
		IsActive:          u.IsActive,
		HiddenSectionKeys: u.HiddenSectionKeys,
		HiddenSiteKeys:    u.HiddenSiteKeys,
		Groups:            groups,
		DateJoined:        u.DateJoined,
		DaysOnSite:        u.DaysOnSite(),
	}
	if !u.LastLogin.IsZero() {
		ll := u.LastLogin
		v.LastLogin = &ll
	}
	return v
}

func viewUsers(users []*entity.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, viewUser(u))
	}
	return out
}

type inviteView struct {
	ID               string     `json:"id"`
	Code             string     `json:"code"`
	Email            string     `json:"email"`
	GroupIDs         []string   `json:"group_ids,omitempty"`
	IsInternal       bool       `json:"is_internal"`
	IsAdministrator  bool       `json:"is_administrator"`
	SentByID         string     `json:"sent_by,omitempty"`
	RegisteredUserID string     `json:"registered_user_id,omitempty"`
	RegistrationDate *time.Time `json:"registration_date,omitempty"`
	Added            time.Time  `json:"added"`
}

func viewInvite(inv *entity.UserInvite) inviteView {
	return inviteView{
		ID:               inv.ID,
		Code:             inv.Code,
		Email:            inv.Email,
		GroupIDs:         inv.GroupIDs,
		IsInternal:       inv.IsInternal,
		IsAdministrator:  inv.IsAdministrator,
		SentByID:         inv.SentByID,
		RegisteredUserID: inv.RegisteredUserID,
		RegistrationDate: inv.RegistrationDate,
		Added:            inv.Added,
	}
}

func viewInvites(invites []*entity.UserInvite) []inviteView {
	out := make([]inviteView, 0, len(invites))
	for _, inv := range invites {
		out = append(out, viewInvite(inv))
	}
	return out
}
