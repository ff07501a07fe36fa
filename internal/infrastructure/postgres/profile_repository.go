package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabbli/accounts/internal/domain/entity"
	"github.com/tabbli/accounts/internal/domain/repository"
)

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) UpsertFacebook(p *entity.FacebookProfile) error {
	ctx := context.Background()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO facebook_profiles (user_id, access_token, provider_uid)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET access_token = EXCLUDED.access_token, provider_uid = EXCLUDED.provider_uid
	`, p.UserID, p.AccessToken, p.ProviderUID)
	return mapError(err)
}

func (r *ProfileRepository) GetFacebookByUserID(userID string) (*entity.FacebookProfile, error) {
	ctx := context.Background()
	p := &entity.FacebookProfile{}
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, access_token, provider_uid
		FROM facebook_profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.AccessToken, &p.ProviderUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProfileRepository) UpsertGoogle(p *entity.GoogleProfile) error {
	ctx := context.Background()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO google_profiles (user_id, provider_uid)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET provider_uid = EXCLUDED.provider_uid
	`, p.UserID, p.ProviderUID)
	return mapError(err)
}

func (r *ProfileRepository) GetGoogleByUserID(userID string) (*entity.GoogleProfile, error) {
	ctx := context.Background()
	p := &entity.GoogleProfile{}
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, provider_uid
		FROM google_profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.ProviderUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)
