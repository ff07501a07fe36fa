package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tabbli/accounts/internal/domain/entity"
	"github.com/tabbli/accounts/internal/domain/repository"
	"github.com/tabbli/accounts/pkg/helpers"
	"github.com/tabbli/accounts/pkg/mailer"
	"github.com/tabbli/accounts/pkg/mailer/templates"
)

// maxCodeAttempts bounds invite code allocation. With 26^30 possible codes
// hitting it means the random source is broken, not that the space is full.
const maxCodeAttempts = 100

// InviteService manages registration invites and the emails that deliver
// them. Sending is asynchronous: the service only enqueues a mail job.
type InviteService struct {
	invites repository.InviteRepository
	users   repository.UserRepository
	emails  TaskPublisher
	siteURL string
	log     *logrus.Logger
}

func NewInviteService(invites repository.InviteRepository, users repository.UserRepository, emails TaskPublisher, siteURL string, log *logrus.Logger) *InviteService {
	return &InviteService{invites: invites, users: users, emails: emails, siteURL: siteURL, log: log}
}

// AllocateCode draws random codes until one is free. The uniqueness check
// here is advisory; the database constraint is the real arbiter and Create
// retries on its verdict.
func (s *InviteService) AllocateCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := helpers.RandomLowercase(entity.InviteCodeLength)
		if err != nil {
			return "", err
		}
		taken, err := s.invites.CodeExists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free invite code after %d attempts", maxCodeAttempts)
}

// CreateInviteInput describes the account an invite authorizes.
type CreateInviteInput struct {
	Email           string
	GroupIDs        []string
	IsInternal      bool
	IsAdministrator bool
	SentByID        string
}

// Create allocates a code and persists the invite. A code collision
// between the advisory check and the insert surfaces as ErrDuplicate and
// is retried with a fresh code.
func (s *InviteService) Create(in CreateInviteInput) (*entity.UserInvite, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	for i := 0; i < maxCodeAttempts; i++ {
		code, err := s.AllocateCode()
		if err != nil {
			return nil, err
		}
		inv := &entity.UserInvite{
			Code:            code,
			Email:           email,
			GroupIDs:        in.GroupIDs,
			IsInternal:      in.IsInternal,
			IsAdministrator: in.IsAdministrator,
			SentByID:        in.SentByID,
		}
		err = s.invites.Create(inv)
		if err == nil {
			return inv, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("invite code collided %d times", maxCodeAttempts)
}

// Send queues the invite email. The sender's display name is resolved from
// the inviting user when set, falling back to the product name.
func (s *InviteService) Send(ctx context.Context, inv *entity.UserInvite) error {
	if s.emails == nil {
		return errors.New("mail queue is not configured")
	}

	senderName := "Tabbli"
	if inv.SentByID != "" {
		if sender, err := s.users.GetByID(inv.SentByID); err == nil {
			if sender.Name != "" {
				senderName = sender.Name
			}
		}
	}

	job := mailer.EmailJob{
		To:       inv.Email,
		Template: templates.Invite,
		Data: map[string]any{
			"SenderName":      senderName,
			"RegistrationURL": inv.RegistrationURL(s.siteURL),
		},
	}
	if err := s.emails.PublishJSON(ctx, job); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"invite": inv.ID, "to": inv.Email}).Info("invite email queued")
	return nil
}

// CreateAndSend is the usual admin flow: persist the invite, then queue
// its email. A failed send leaves the invite in place; Resend covers it.
func (s *InviteService) CreateAndSend(ctx context.Context, in CreateInviteInput) (*entity.UserInvite, error) {
	inv, err := s.Create(in)
	if err != nil {
		return nil, err
	}
	if err := s.Send(ctx, inv); err != nil {
		s.log.WithError(err).WithField("invite", inv.ID).Error("invite email enqueue failed")
	}
	return inv, nil
}

// Resend queues the email for an existing, still unconsumed invite.
func (s *InviteService) Resend(ctx context.Context, inviteID string) (*entity.UserInvite, error) {
	inv, err := s.Get(inviteID)
	if err != nil {
		return nil, err
	}
	if inv.Consumed() {
		return nil, ErrInviteConsumed
	}
	if err := s.Send(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Get loads an invite by id.
func (s *InviteService) Get(id string) (*entity.UserInvite, error) {
	inv, err := s.invites.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownInvite
		}
		return nil, err
	}
	return inv, nil
}

// GetByCode loads an invite by its public code, for the registration page
// to prefill the email field.
func (s *InviteService) GetByCode(code string) (*entity.UserInvite, error) {
	inv, err := s.invites.GetByCode(code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownInvite
		}
		return nil, err
	}
	return inv, nil
}

// List pages through invites, newest first.
func (s *InviteService) List(offset, limit int) ([]*entity.UserInvite, error) {
	return s.invites.List(offset, limit)
}
