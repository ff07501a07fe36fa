package repository

import (
	"time"

	"github.com/tabbli/accounts/internal/domain/entity"
)

// InviteRepository persists registration invites. Code uniqueness is backed
// by a unique constraint; Create surfaces a collision as ErrDuplicate so the
// allocator can retry.
type InviteRepository interface {
	Create(inv *entity.UserInvite) error
	GetByID(id string) (*entity.UserInvite, error)
	GetByCode(code string) (*entity.UserInvite, error)
	CodeExists(code string) (bool, error)
	List(offset, limit int) ([]*entity.UserInvite, error)
	// MarkRegistered sets the registered user exactly once. It reports
	// false when the invite was already consumed.
	MarkRegistered(inviteID, userID string, at time.Time) (bool, error)
}
