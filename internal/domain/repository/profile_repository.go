package repository

import "github.com/tabbli/accounts/internal/domain/entity"

// ProfileRepository persists provider-specific profile sub-records.
// Upserts implement last-login-wins: existing rows are overwritten with the
// latest provider user id (and access token for Facebook).
type ProfileRepository interface {
	UpsertFacebook(p *entity.FacebookProfile) error
	GetFacebookByUserID(userID string) (*entity.FacebookProfile, error)
	UpsertGoogle(p *entity.GoogleProfile) error
	GetGoogleByUserID(userID string) (*entity.GoogleProfile, error)
}
