package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabbli/accounts/internal/domain/entity"
	"github.com/tabbli/accounts/internal/domain/repository"
)

type InviteRepository struct {
	pool *pgxpool.Pool
}

func NewInviteRepository(pool *pgxpool.Pool) *InviteRepository {
	return &InviteRepository{pool: pool}
}

func (r *InviteRepository) Create(inv *entity.UserInvite) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO user_invites (code, email, is_internal, is_administrator, sent_by)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, added
	`, inv.Code, inv.Email, inv.IsInternal, inv.IsAdministrator, inv.SentByID)
	if err := row.Scan(&inv.ID, &inv.Added); err != nil {
		return mapError(err)
	}
	for _, gid := range inv.GroupIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_invite_groups (invite_id, group_id) VALUES ($1, $2)
		`, inv.ID, gid); err != nil {
			return mapError(err)
		}
	}
	return tx.Commit(ctx)
}

func (r *InviteRepository) GetByID(id string) (*entity.UserInvite, error) {
	return r.getOne(`WHERE id = $1`, id)
}

func (r *InviteRepository) GetByCode(code string) (*entity.UserInvite, error) {
	return r.getOne(`WHERE code = $1`, code)
}

func (r *InviteRepository) getOne(where string, arg any) (*entity.UserInvite, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT id, code, email, is_internal, is_administrator,
		       COALESCE(sent_by::text, ''), COALESCE(registered_user_id::text, ''),
		       registration_date, added
		FROM user_invites `+where, arg)
	inv, err := scanInvite(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadGroups(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *InviteRepository) CodeExists(code string) (bool, error) {
	ctx := context.Background()
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_invites WHERE code = $1)
	`, code).Scan(&exists)
	return exists, err
}

func (r *InviteRepository) List(offset, limit int) ([]*entity.UserInvite, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, email, is_internal, is_administrator,
		       COALESCE(sent_by::text, ''), COALESCE(registered_user_id::text, ''),
		       registration_date, added
		FROM user_invites
		ORDER BY added DESC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []*entity.UserInvite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// MarkRegistered consumes the invite. The WHERE clause guards the
// set-at-most-once invariant even under concurrent registrations.
func (r *InviteRepository) MarkRegistered(inviteID, userID string, at time.Time) (bool, error) {
	ctx := context.Background()
	res, err := r.pool.Exec(ctx, `
		UPDATE user_invites
		SET registered_user_id = $1, registration_date = $2
		WHERE id = $3 AND registered_user_id IS NULL
	`, userID, at, inviteID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

func (r *InviteRepository) loadGroups(ctx context.Context, inv *entity.UserInvite) error {
	rows, err := r.pool.Query(ctx, `
		SELECT group_id FROM user_invite_groups WHERE invite_id = $1
	`, inv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var gid string
		if err := rows.Scan(&gid); err != nil {
			return err
		}
		inv.GroupIDs = append(inv.GroupIDs, gid)
	}
	return rows.Err()
}

func scanInvite(row pgx.Row) (*entity.UserInvite, error) {
	inv := &entity.UserInvite{}
	if err := row.Scan(
		&inv.ID, &inv.Code, &inv.Email, &inv.IsInternal, &inv.IsAdministrator,
		&inv.SentByID, &inv.RegisteredUserID,
		&inv.RegistrationDate, &inv.Added,
	); err != nil {
		return nil, err
	}
	return inv, nil
}

var _ repository.InviteRepository = (*InviteRepository)(nil)
