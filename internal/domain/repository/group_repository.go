package repository

import "github.com/tabbli/accounts/internal/domain/entity"

// GroupRepository persists user groups. Names are unique.
type GroupRepository interface {
	Create(g *entity.UserGroup) error
	GetByID(id string) (*entity.UserGroup, error)
	List() ([]*entity.UserGroup, error)
	Rename(id, name string) error
	Delete(id string) error
}
