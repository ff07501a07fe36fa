package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabbli/accounts/internal/domain/entity"
	"github.com/tabbli/accounts/internal/domain/repository"
)

type GroupRepository struct {
	pool *pgxpool.Pool
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

func (r *GroupRepository) Create(g *entity.UserGroup) error {
	ctx := context.Background()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO user_groups (name) VALUES ($1) RETURNING id
	`, g.Name).Scan(&g.ID)
	return mapError(err)
}

func (r *GroupRepository) GetByID(id string) (*entity.UserGroup, error) {
	ctx := context.Background()
	g := &entity.UserGroup{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name FROM user_groups WHERE id = $1
	`, id).Scan(&g.ID, &g.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *GroupRepository) List() ([]*entity.UserGroup, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM user_groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*entity.UserGroup
	for rows.Next() {
		g := &entity.UserGroup{}
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *GroupRepository) Rename(id, name string) error {
	ctx := context.Background()
	res, err := r.pool.Exec(ctx, `UPDATE user_groups SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return mapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *GroupRepository) Delete(id string) error {
	ctx := context.Background()
	res, err := r.pool.Exec(ctx, `DELETE FROM user_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.GroupRepository = (*GroupRepository)(nil)
