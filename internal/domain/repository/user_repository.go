package repository

import "github.com/tabbli/accounts/internal/domain/entity"

// UserRepository defines the interface for user-related database operations.
// Email lookups are case-insensitive; uniqueness of the email column is
// enforced by the persistence layer and surfaced as ErrDuplicate.
type UserRepository interface {
	Create(u *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	Update(u *entity.User) error
	UpdatePassword(id, hash string) error
	SetActive(id string, active bool) error
	Delete(id string) error
	List(offset, limit int) ([]*entity.User, error)
	SetGroups(id string, groupIDs []string) error
}
