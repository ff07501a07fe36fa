package application

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tabbli/accounts/internal/domain/entity"
	"github.com/tabbli/accounts/internal/domain/repository"
)

// In-memory repository fakes mirroring the postgres implementations'
// contracts: sentinel errors, case-insensitive email uniqueness, at-most-
// once invite consumption.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*entity.User{}}
}

func (r *memUserRepo) Create(u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.users {
		if strings.EqualFold(e.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.DateJoined = time.Now().UTC()
	u.UpdatedAt = u.DateJoined
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) Update(u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, e := range r.users {
		if id != u.ID && strings.EqualFold(e.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	cp := *u
	cp.DateJoined = cur.DateJoined
	cp.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) UpdatePassword(id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (r *memUserRepo) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (r *memUserRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) List(offset, limit int) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memUserRepo) SetGroups(id string, groupIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Groups = nil
	for _, gid := range groupIDs {
		u.Groups = append(u.Groups, entity.UserGroup{ID: gid})
	}
	return nil
}

type memProfileRepo struct {
	mu       sync.Mutex
	facebook map[string]*entity.FacebookProfile
	google   map[string]*entity.GoogleProfile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{
		facebook: map[string]*entity.FacebookProfile{},
		google:   map[string]*entity.GoogleProfile{},
	}
}

func (r *memProfileRepo) UpsertFacebook(p *entity.FacebookProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.facebook[p.UserID] = &cp
	return nil
}

func (r *memProfileRepo) GetFacebookByUserID(userID string) (*entity.FacebookProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.facebook[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProfileRepo) UpsertGoogle(p *entity.GoogleProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.google[p.UserID] = &cp
	return nil
}

func (r *memProfileRepo) GetGoogleByUserID(userID string) (*entity.GoogleProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.google[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type memInviteRepo struct {
	mu      sync.Mutex
	byID    map[string]*entity.UserInvite
	byCode  map[string]string
	preTake map[string]bool // codes forced to collide on Create
}

func newMemInviteRepo() *memInviteRepo {
	return &memInviteRepo{
		byID:    map[string]*entity.UserInvite{},
		byCode:  map[string]string{},
		preTake: map[string]bool{},
	}
}

func (r *memInviteRepo) Create(inv *entity.UserInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byCode[inv.Code]; taken || r.preTake[inv.Code] {
		return repository.ErrDuplicate
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	inv.Added = time.Now().UTC()
	cp := *inv
	r.byID[inv.ID] = &cp
	r.byCode[inv.Code] = inv.ID
	return nil
}

func (r *memInviteRepo) GetByID(id string) (*entity.UserInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r *memInviteRepo) GetByCode(code string) (*entity.UserInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *memInviteRepo) CodeExists(code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byCode[code]
	return ok || r.preTake[code], nil
}

func (r *memInviteRepo) List(offset, limit int) ([]*entity.UserInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*entity.UserInvite, 0, len(r.byID))
	for _, inv := range r.byID {
		cp := *inv
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Added.After(all[j].Added) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memInviteRepo) MarkRegistered(inviteID, userID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[inviteID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if inv.RegisteredUserID != "" {
		return false, nil
	}
	inv.RegisteredUserID = userID
	inv.RegistrationDate = &at
	return true, nil
}

type memGroupRepo struct {
	mu     sync.Mutex
	groups map[string]*entity.UserGroup
}

func newMemGroupRepo() *memGroupRepo {
	return &memGroupRepo{groups: map[string]*entity.UserGroup{}}
}

func (r *memGroupRepo) Create(g *entity.UserGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.groups {
		if e.Name == g.Name {
			return repository.ErrDuplicate
		}
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	cp := *g
	r.groups[g.ID] = &cp
	return nil
}

func (r *memGroupRepo) GetByID(id string) (*entity.UserGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *memGroupRepo) List() ([]*entity.UserGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*entity.UserGroup, 0, len(r.groups))
	for _, g := range r.groups {
		cp := *g
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (r *memGroupRepo) Rename(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return repository.ErrNotFound
	}
	for gid, e := range r.groups {
		if gid != id && e.Name == name {
			return repository.ErrDuplicate
		}
	}
	g.Name = name
	return nil
}

func (r *memGroupRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.groups, id)
	return nil
}

// memSessionStore is a map-backed SessionStore.
type memSessionStore struct {
	mu   sync.Mutex
	sids map[string]string
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sids: map[string]string{}}
}

func (s *memSessionStore) Put(ctx context.Context, userID, sid string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sids[userID] = sid
	return nil
}

func (s *memSessionStore) Get(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sid, ok := s.sids[userID]
	if !ok {
		return "", ErrSessionExpired
	}
	return sid, nil
}

func (s *memSessionStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sids, userID)
	return nil
}

// capturePublisher records published JSON payloads.
type capturePublisher struct {
	mu   sync.Mutex
	sent []json.RawMessage
	err  error
}

func (p *capturePublisher) PublishJSON(ctx context.Context, body any) error {
	if p.err != nil {
		return p.err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, json.RawMessage(b))
	return nil
}

func (p *capturePublisher) jobs() []CorrectionJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]CorrectionJob, 0, len(p.sent))
	for _, raw := range p.sent {
		var j CorrectionJob
		_ = json.Unmarshal(raw, &j)
		out = append(out, j)
	}
	return out
}

// stubFinder returns a canned set of related records per email.
type stubFinder struct {
	records map[string][]RelatedRecord
	err     error
}

func (f *stubFinder) FindByEmail(ctx context.Context, email string) ([]RelatedRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[email], nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
