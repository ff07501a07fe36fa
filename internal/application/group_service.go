package application

import (
	"errors"

	"github.com/tabbli/accounts/internal/domain/entity"
	"github.com/tabbli/accounts/internal/domain/repository"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrGroupExists   = errors.New("group name already exists")
)

// GroupService manages the flat list of user groups.
type GroupService struct {
	groups repository.GroupRepository
}

func NewGroupService(groups repository.GroupRepository) *GroupService {
	return &GroupService{groups: groups}
}

func (s *GroupService) Create(name string) (*entity.UserGroup, error) {
	g := &entity.UserGroup{Name: name}
	if err := s.groups.Create(g); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrGroupExists
		}
		return nil, err
	}
	return g, nil
}

func (s *GroupService) Get(id string) (*entity.UserGroup, error) {
	g, err := s.groups.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return g, nil
}

func (s *GroupService) List() ([]*entity.UserGroup, error) {
	return s.groups.List()
}

func (s *GroupService) Rename(id, name string) error {
	err := s.groups.Rename(id, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrGroupNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrGroupExists
	}
	return err
}

func (s *GroupService) Delete(id string) error {
	if err := s.groups.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGroupNotFound
		}
		return err
	}
	return nil
}
