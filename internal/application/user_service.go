package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tabbli/accounts/internal/domain/entity"
	"github.com/tabbli/accounts/internal/domain/repository"
	"github.com/tabbli/accounts/pkg/helpers"
)

// TokenPair is an issued access/refresh token set with expiry times for
// cookie max-age.
type TokenPair struct {
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

// UserService implements account management: creation, authentication and
// sessions, profile updates with email-change propagation, avatars, and
// search. Optional collaborators (gcs, es, finder, corrections) may be nil
// in cut-down deployments; the corresponding features degrade or error
// instead of panicking.
type UserService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	invites  repository.InviteRepository
	groups   repository.GroupRepository

	backends *Backends

	sessions SessionStore
	jwt      *helpers.JWTManager

	gcs       *storage.Client
	gcsBucket string

	es         *elasticsearch.Client
	usersIndex string

	finder      RelatedRecordFinder
	corrections TaskPublisher

	loginRedirectURL      string
	newAccountRedirectURL string

	log *logrus.Logger
}

// UserServiceDeps collects everything a full UserService needs. Using a
// struct keeps the constructor call readable at eleven dependencies.
type UserServiceDeps struct {
	Users    repository.UserRepository
	Profiles repository.ProfileRepository
	Invites  repository.InviteRepository
	Groups   repository.GroupRepository

	Backends *Backends

	Sessions SessionStore
	JWT      *helpers.JWTManager

	GCS       *storage.Client
	GCSBucket string

	ES         *elasticsearch.Client
	UsersIndex string

	Finder      RelatedRecordFinder
	Corrections TaskPublisher

	LoginRedirectURL      string
	NewAccountRedirectURL string

	Log *logrus.Logger
}

func NewUserService(d UserServiceDeps) *UserService {
	return &UserService{
		users:                 d.Users,
		profiles:              d.Profiles,
		invites:               d.Invites,
		groups:                d.Groups,
		backends:              d.Backends,
		sessions:              d.Sessions,
		jwt:                   d.JWT,
		gcs:                   d.GCS,
		gcsBucket:             d.GCSBucket,
		es:                    d.ES,
		usersIndex:            d.UsersIndex,
		finder:                d.Finder,
		corrections:           d.Corrections,
		loginRedirectURL:      d.LoginRedirectURL,
		newAccountRedirectURL: d.NewAccountRedirectURL,
		log:                   d.Log,
	}
}

// CreateUserInput carries the fields admins (and the registration flow)
// may set on a new account. Password empty means the account gets the
// unusable-password sentinel and can only sign in socially.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string

	Role     string
	Phone    string
	Language string
	TimeZone string

	IsInternal      bool
	IsAdministrator bool
	IsReadonly      bool
	IsStaff         bool
	IsSuperuser     bool

	GroupIDs []string
}

// CreateUser builds and persists a new active account. The avatar text and
// color are derived up front so every user renders with a stable initials
// badge before any image upload.
func (s *UserService) CreateUser(in CreateUserInput) (*entity.User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	hash := helpers.UnusablePassword
	if in.Password != "" {
		var err error
		hash, err = helpers.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
	}

	token, err := helpers.NewActivationToken()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	u := &entity.User{
		ID:       id,
		Email:    email,
		Password: hash,
		Name:     strings.TrimSpace(in.Name),

		Role:     in.Role,
		Phone:    in.Phone,
		Language: in.Language,
		TimeZone: in.TimeZone,

		AvatarText:  helpers.DeriveInitials(in.Name),
		AvatarColor: helpers.DeriveColor(id, &helpers.AvatarMixBase),

		IsInternal:      in.IsInternal,
		IsAdministrator: in.IsAdministrator,
		IsReadonly:      in.IsReadonly,
		IsStaff:         in.IsStaff,
		IsSuperuser:     in.IsSuperuser,
		IsActive:        true,

		PermanentActivationToken: token,
	}

	if err := s.users.Create(u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if len(in.GroupIDs) > 0 {
		if err := s.users.SetGroups(u.ID, in.GroupIDs); err != nil {
			return nil, err
		}
		if err := s.reloadGroups(u); err != nil {
			return nil, err
		}
	}

	s.indexUser(context.Background(), u)
	return u, nil
}

// RegisterInput is the self-service registration payload. The invite code
// is mandatory: registration is closed without one.
type RegisterInput struct {
	InviteCode string
	Email      string
	Name       string
	Password   string
}

// Register consumes an invite and creates the account it authorizes. The
// invite's flags and groups are applied to the new user. Consumption is
// atomic: when two registrations race on one code, exactly one wins and
// the loser's account is rolled back.
func (s *UserService) Register(in RegisterInput) (*entity.User, error) {
	inv, err := s.invites.GetByCode(in.InviteCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownInvite
		}
		return nil, err
	}
	if inv.Consumed() {
		return nil, ErrInviteConsumed
	}

	email := in.Email
	if NormalizeEmail(email) == "" {
		email = inv.Email
	}

	u, err := s.CreateUser(CreateUserInput{
		Email:           email,
		Name:            in.Name,
		Password:        in.Password,
		IsInternal:      inv.IsInternal,
		IsAdministrator: inv.IsAdministrator,
		GroupIDs:        inv.GroupIDs,
	})
	if err != nil {
		return nil, err
	}

	ok, err := s.invites.MarkRegistered(inv.ID, u.ID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race for the code after creating the account.
		if derr := s.users.Delete(u.ID); derr != nil {
			s.log.WithError(derr).WithField("user", u.ID).
				Error("rollback of raced registration failed")
		}
		return nil, ErrInviteConsumed
	}
	return u, nil
}

// Authenticate runs the password backend. Unknown email, wrong password
// and inactive account all collapse into ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.backends.Password.Authenticate(ctx, Assertion{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Login authenticates and opens a session, touching last_login.
func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, *TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.IssueTokens(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	s.touchLastLogin(u)
	return u, pair, nil
}

// IssueTokens opens a fresh session for the user and returns a signed
// token pair carrying the session id. Only one session per user is kept;
// issuing again invalidates tokens from the previous session.
func (s *UserService) IssueTokens(ctx context.Context, userID string) (*TokenPair, error) {
	sid := uuid.NewString()
	if err := s.sessions.Put(ctx, userID, sid, s.jwt.RefreshTTL); err != nil {
		return nil, err
	}
	return s.signPair(userID, sid)
}

// Refresh validates a refresh token against the stored session and rotates
// the session id, so a stolen refresh token stops working after its first
// legitimate use.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrSessionExpired
	}
	sid, err := s.sessions.Get(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if sid != claims.SessionID {
		return nil, ErrSessionExpired
	}

	next := uuid.NewString()
	if err := s.sessions.Put(ctx, claims.UserID, next, s.jwt.RefreshTTL); err != nil {
		return nil, err
	}
	return s.signPair(claims.UserID, next)
}

// ParseAccessToken exposes token parsing for callers that need the raw
// claims (optional-auth routes).
func (s *UserService) ParseAccessToken(token string) (*helpers.Claims, error) {
	return s.jwt.ParseAccessToken(token)
}

// ValidateSession confirms the access-token claims still match the live
// session. Middleware calls this on every authenticated request.
func (s *UserService) ValidateSession(ctx context.Context, claims *helpers.Claims) error {
	sid, err := s.sessions.Get(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if sid != claims.SessionID {
		return ErrSessionExpired
	}
	return nil
}

// Logout drops the user's session; outstanding tokens become invalid.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	return s.sessions.Delete(ctx, userID)
}

func (s *UserService) signPair(userID, sid string) (*TokenPair, error) {
	access, aexp, err := s.jwt.GenerateAccessToken(userID, sid)
	if err != nil {
		return nil, err
	}
	refresh, rexp, err := s.jwt.GenerateRefreshToken(userID, sid)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:    access,
		AccessExpires:  aexp,
		RefreshToken:   refresh,
		RefreshExpires: rexp,
	}, nil
}

// GetProfile loads a user by id.
func (s *UserService) GetProfile(id string) (*entity.User, error) {
	u, err := s.users.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateProfileInput holds partial profile changes. Nil pointer fields are
// left untouched; Data, when non-nil, replaces the stored bag wholesale.
type UpdateProfileInput struct {
	Email    *string
	Name     *string
	Phone    *string
	Language *string
	TimeZone *string
	Data     map[string]any

	HiddenSectionKeys []string
	HiddenSiteKeys    []string
}

// UpdateProfile applies a partial update. When the email changes, every
// denormalized record referencing the old address is queued for
// correction after the row is committed; propagation failures are logged,
// never surfaced, since the profile change itself already succeeded.
// Avatar text and color are filled in only while they still hold the
// placeholder values; once set they survive renames.
func (s *UserService) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.GetProfile(id)
	if err != nil {
		return nil, err
	}

	oldEmail := u.Email
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if email == "" {
			return nil, ErrMissingEmail
		}
		u.Email = email
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.Language != nil {
		u.Language = *in.Language
	}
	if in.TimeZone != nil {
		u.TimeZone = *in.TimeZone
	}
	if in.Data != nil {
		u.Data = in.Data
	}
	if in.HiddenSectionKeys != nil {
		u.HiddenSectionKeys = in.HiddenSectionKeys
	}
	if in.HiddenSiteKeys != nil {
		u.HiddenSiteKeys = in.HiddenSiteKeys
	}

	// Backfill placeholder avatar fields left by legacy imports.
	if u.AvatarText == entity.DefaultAvatarText || u.AvatarText == "" {
		u.AvatarText = helpers.DeriveInitials(u.Name)
	}
	if u.AvatarColor == entity.DefaultAvatarColor || u.AvatarColor == "" {
		u.AvatarColor = helpers.DeriveColor(u.ID, &helpers.AvatarMixBase)
	}

	if err := s.users.Update(u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if u.Email != oldEmail {
		s.enqueueEmailCorrections(oldEmail, u.Email)
	}
	s.indexUser(ctx, u)
	return u, nil
}

const correctionTimeout = 30 * time.Second

// enqueueEmailCorrections finds records still holding the old email and
// publishes one correction job per record. Runs detached from the request.
func (s *UserService) enqueueEmailCorrections(oldEmail, newEmail string) {
	if s.finder == nil || s.corrections == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), correctionTimeout)
	defer cancel()

	records, err := s.finder.FindByEmail(ctx, oldEmail)
	if err != nil {
		s.log.WithError(err).WithField("email", oldEmail).
			Error("related record lookup failed, corrections skipped")
		return
	}
	for _, r := range records {
		job := CorrectionJob{
			RecordID: r.ID,
			Index:    r.Index,
			OldEmail: oldEmail,
			NewEmail: newEmail,
		}
		if err := s.corrections.PublishJSON(ctx, job); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"index":  r.Index,
				"record": r.ID,
			}).Error("correction job publish failed")
		}
	}
	if len(records) > 0 {
		s.log.WithFields(logrus.Fields{
			"old":  oldEmail,
			"jobs": len(records),
		}).Info("email correction jobs queued")
	}
}

// SetPassword replaces the stored hash. An admin resetting a social-only
// account this way turns it into a password account.
func (s *UserService) SetPassword(id, plain string) error {
	hash, err := helpers.HashPassword(plain)
	if err != nil {
		return err
	}
	return s.wrapNotFound(s.users.UpdatePassword(id, hash))
}

// SetUnusablePassword disables password login without touching social
// profiles.
func (s *UserService) SetUnusablePassword(id string) error {
	return s.wrapNotFound(s.users.UpdatePassword(id, helpers.UnusablePassword))
}

// SetActive flips the active flag. Deactivation also drops the session so
// the lockout is immediate.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.wrapNotFound(s.users.SetActive(id, active)); err != nil {
		return err
	}
	if !active {
		if err := s.Logout(ctx, id); err != nil {
			s.log.WithError(err).WithField("user", id).Warn("session drop on deactivate failed")
		}
	}
	return nil
}

// SetGroups replaces the user's group memberships.
func (s *UserService) SetGroups(id string, groupIDs []string) error {
	return s.wrapNotFound(s.users.SetGroups(id, groupIDs))
}

// ListUsers pages through all accounts.
func (s *UserService) ListUsers(offset, limit int) ([]*entity.User, error) {
	return s.users.List(offset, limit)
}

// DeleteUser removes the account, its session, its search document and
// its avatar blob. Social profiles cascade in the database. Cleanup of
// external stores is best effort.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	u, err := s.GetProfile(id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(id); err != nil {
		return s.wrapNotFound(err)
	}

	if err := s.Logout(ctx, id); err != nil {
		s.log.WithError(err).WithField("user", id).Warn("session drop on delete failed")
	}
	s.deleteAvatarBlob(ctx, u.AvatarURL)
	s.deleteUserDoc(ctx, id)
	return nil
}

const maxAvatarBytes = 5 << 20

// UploadAvatar stores the image under a fresh object name, points the user
// at it and removes the previous blob. Re-uploads therefore never serve a
// stale cached image.
func (s *UserService) UploadAvatar(ctx context.Context, userID, filename, contentType string, r io.Reader) (*entity.User, error) {
	if s.gcs == nil || s.gcsBucket == "" {
		return nil, errors.New("avatar storage is not configured")
	}
	u, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(filename))
	object := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext)
	url, err := helpers.UploadObject(ctx, s.gcs, s.gcsBucket, object, contentType,
		io.LimitReader(r, maxAvatarBytes))
	if err != nil {
		return nil, err
	}

	old := u.AvatarURL
	u.AvatarURL = url
	if err := s.users.Update(u); err != nil {
		return nil, err
	}
	s.deleteAvatarBlob(ctx, old)
	return u, nil
}

// RemoveAvatar drops the image; the user falls back to the initials badge.
func (s *UserService) RemoveAvatar(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	old := u.AvatarURL
	u.AvatarURL = ""
	if err := s.users.Update(u); err != nil {
		return nil, err
	}
	s.deleteAvatarBlob(ctx, old)
	return u, nil
}

func (s *UserService) deleteAvatarBlob(ctx context.Context, url string) {
	if s.gcs == nil || url == "" {
		return
	}
	if err := helpers.DeleteObjectByURL(ctx, s.gcs, s.gcsBucket, url); err != nil {
		s.log.WithError(err).WithField("url", url).Warn("avatar blob delete failed")
	}
}

// UserDoc is the search-index projection of a user.
type UserDoc struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
}

func (s *UserService) indexUser(ctx context.Context, u *entity.User) {
	if s.es == nil {
		return
	}
	doc := UserDoc{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		IsActive:   u.IsActive,
		DateJoined: u.DateJoined,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		s.log.WithError(err).Error("user doc marshal failed")
		return
	}
	res, err := s.es.Index(s.usersIndex, strings.NewReader(string(body)),
		s.es.Index.WithDocumentID(u.ID),
		s.es.Index.WithContext(ctx))
	if err != nil {
		s.log.WithError(err).WithField("user", u.ID).Warn("user indexing failed")
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		s.log.WithFields(logrus.Fields{"user": u.ID, "status": res.Status()}).
			Warn("user indexing rejected")
	}
}

func (s *UserService) deleteUserDoc(ctx context.Context, id string) {
	if s.es == nil {
		return
	}
	res, err := s.es.Delete(s.usersIndex, id, s.es.Delete.WithContext(ctx))
	if err != nil {
		s.log.WithError(err).WithField("user", id).Warn("user doc delete failed")
		return
	}
	res.Body.Close()
}

// SearchUsers runs a fuzzy prefix search over names and emails.
func (s *UserService) SearchUsers(ctx context.Context, query string, from, size int) ([]UserDoc, error) {
	if s.es == nil {
		return nil, errors.New("user search is not configured")
	}
	if size <= 0 {
		size = 20
	}
	body := map[string]any{
		"from": from,
		"size": size,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"name", "email"},
				"type":   "bool_prefix",
			},
		},
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.usersIndex),
		s.es.Search.WithBody(strings.NewReader(string(buf))),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("es search %s: %s", s.usersIndex, res.Status())
	}

	var out struct {
		Hits struct {
			Hits []struct {
				Source UserDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	docs := make([]UserDoc, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		docs = append(docs, h.Source)
	}
	return docs, nil
}

func (s *UserService) touchLastLogin(u *entity.User) {
	u.LastLogin = time.Now().UTC()
	if err := s.users.Update(u); err != nil {
		s.log.WithError(err).WithField("user", u.ID).Warn("last_login update failed")
	}
}

func (s *UserService) reloadGroups(u *entity.User) error {
	fresh, err := s.users.GetByID(u.ID)
	if err != nil {
		return err
	}
	u.Groups = fresh.Groups
	return nil
}

func (s *UserService) wrapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// NormalizeEmail lowercases and trims an address; comparisons and storage
// always use this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
