package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabbli/accounts/internal/domain/entity"
	"github.com/tabbli/accounts/internal/domain/repository"
)

const userColumns = `
	id, email, password_hash, name, role, phone, data,
	language, time_zone, avatar_url, avatar_text, avatar_color,
	is_internal, is_administrator, is_readonly, is_staff, is_superuser, is_active,
	one_time_link_support, permanent_activation_link, permanent_activation_token,
	hidden_section_keys, hidden_site_keys,
	date_joined, last_login, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(u *entity.User) error {
	ctx := context.Background()
	data, err := json.Marshal(dataOrEmpty(u.Data))
	if err != nil {
		return err
	}
	// The id is generated by the caller before insert; avatar colors are
	// derived from it during the creation path.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (
			id, email, password_hash, name, role, phone, data,
			language, time_zone, avatar_url, avatar_text, avatar_color,
			is_internal, is_administrator, is_readonly, is_staff, is_superuser, is_active,
			one_time_link_support, permanent_activation_link, permanent_activation_token,
			hidden_section_keys, hidden_site_keys, last_login
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
		RETURNING date_joined, updated_at
	`, u.ID, u.Email, u.Password, u.Name, u.Role, u.Phone, data,
		u.Language, u.TimeZone, u.AvatarURL, u.AvatarText, u.AvatarColor,
		u.IsInternal, u.IsAdministrator, u.IsReadonly, u.IsStaff, u.IsSuperuser, u.IsActive,
		u.OneTimeLinkSupport, u.PermanentActivationLink, u.PermanentActivationToken,
		textArray(u.HiddenSectionKeys), textArray(u.HiddenSiteKeys), u.LastLogin)

	if err := row.Scan(&u.DateJoined, &u.UpdatedAt); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *UserRepository) GetByID(id string) (*entity.User, error) {
	return r.getOne(`WHERE id = $1`, id)
}

// GetByEmail resolves the user case-insensitively; email is the sole login
// identifier.
func (r *UserRepository) GetByEmail(email string) (*entity.User, error) {
	return r.getOne(`WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepository) getOne(where string, arg any) (*entity.User, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadGroups(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Update(u *entity.User) error {
	ctx := context.Background()
	u.UpdatedAt = time.Now()
	data, err := json.Marshal(dataOrEmpty(u.Data))
	if err != nil {
		return err
	}
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET
			email = $1, password_hash = $2, name = $3, role = $4, phone = $5, data = $6,
			language = $7, time_zone = $8, avatar_url = $9, avatar_text = $10, avatar_color = $11,
			is_internal = $12, is_administrator = $13, is_readonly = $14,
			is_staff = $15, is_superuser = $16, is_active = $17,
			one_time_link_support = $18, permanent_activation_link = $19, permanent_activation_token = $20,
			hidden_section_keys = $21, hidden_site_keys = $22,
			last_login = $23, updated_at = $24
		WHERE id = $25
	`, u.Email, u.Password, u.Name, u.Role, u.Phone, data,
		u.Language, u.TimeZone, u.AvatarURL, u.AvatarText, u.AvatarColor,
		u.IsInternal, u.IsAdministrator, u.IsReadonly,
		u.IsStaff, u.IsSuperuser, u.IsActive,
		u.OneTimeLinkSupport, u.PermanentActivationLink, u.PermanentActivationToken,
		textArray(u.HiddenSectionKeys), textArray(u.HiddenSiteKeys),
		u.LastLogin, u.UpdatedAt, u.ID)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(id, hash string) error {
	ctx := context.Background()
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2
	`, hash, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetActive(id string, active bool) error {
	ctx := context.Background()
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET is_active = $1, updated_at = now() WHERE id = $2
	`, active, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(id string) error {
	ctx := context.Background()
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(offset, limit int) ([]*entity.User, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY name, date_joined DESC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) SetGroups(id string, groupIDs []string) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM user_group_members WHERE user_id = $1`, id); err != nil {
		return err
	}
	for _, gid := range groupIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_group_members (user_id, group_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, id, gid); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *UserRepository) loadGroups(ctx context.Context, u *entity.User) error {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.name
		FROM user_groups g
		JOIN user_group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.name
	`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var g entity.UserGroup
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return err
		}
		u.Groups = append(u.Groups, g)
	}
	return rows.Err()
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var data []byte
	if err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.Name, &u.Role, &u.Phone, &data,
		&u.Language, &u.TimeZone, &u.AvatarURL, &u.AvatarText, &u.AvatarColor,
		&u.IsInternal, &u.IsAdministrator, &u.IsReadonly, &u.IsStaff, &u.IsSuperuser, &u.IsActive,
		&u.OneTimeLinkSupport, &u.PermanentActivationLink, &u.PermanentActivationToken,
		&u.HiddenSectionKeys, &u.HiddenSiteKeys,
		&u.DateJoined, &u.LastLogin, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &u.Data); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func dataOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ repository.UserRepository = (*UserRepository)(nil)
