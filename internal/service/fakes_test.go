package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mzaikin/courier/internal/domain"
	"github.com/mzaikin/courier/internal/repository"
)

// In-memory repository fakes. The friend fake enforces the same unordered
// pair uniqueness the Postgres schema does, so the duplicate-request tests
// exercise the real contract.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	failSetPresence bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Search(_ context.Context, selfID uuid.UUID, prefix string, limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.ID == selfID {
			continue
		}
		if strings.HasPrefix(strings.ToLower(u.Username), strings.ToLower(prefix)) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeUserRepo) SetPresence(_ context.Context, id uuid.UUID, online bool, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSetPresence {
		return errors.New("store unavailable")
	}
	if u, ok := r.users[id]; ok {
		u.IsOnline = online
		u.LastSeen = lastSeen
	}
	return nil
}

func (r *fakeUserRepo) SetTheme(_ context.Context, id uuid.UUID, theme string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Theme = theme
	}
	return nil
}

func (r *fakeUserRepo) AddPin(_ context.Context, id, peerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	for _, p := range u.PinnedPeers {
		if p == peerID {
			return nil
		}
	}
	u.PinnedPeers = append(u.PinnedPeers, peerID)
	return nil
}

func (r *fakeUserRepo) RemovePin(_ context.Context, id, peerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	out := u.PinnedPeers[:0]
	for _, p := range u.PinnedPeers {
		if p != peerID {
			out = append(out, p)
		}
	}
	u.PinnedPeers = out
	return nil
}

func (r *fakeUserRepo) addUser(username string) *domain.User {
	u := &domain.User{
		ID:          uuid.New(),
		Username:    username,
		Theme:       domain.ThemeLight,
		PinnedPeers: []uuid.UUID{},
		CreatedAt:   time.Now(),
	}
	r.mu.Lock()
	r.users[u.ID] = u
	r.mu.Unlock()
	return u
}

type fakeFriendRepo struct {
	mu    sync.Mutex
	reqs  map[uuid.UUID]*domain.FriendRequest
	users *fakeUserRepo
}

func newFakeFriendRepo(users *fakeUserRepo) *fakeFriendRepo {
	return &fakeFriendRepo{
		reqs:  make(map[uuid.UUID]*domain.FriendRequest),
		users: users,
	}
}

func samePair(a, b *domain.FriendRequest) bool {
	return (a.FromID == b.FromID && a.ToID == b.ToID) ||
		(a.FromID == b.ToID && a.ToID == b.FromID)
}

func (r *fakeFriendRepo) CreateRequest(_ context.Context, req *domain.FriendRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reqs {
		if samePair(existing, req) {
			return repository.ErrDuplicatePair
		}
	}
	cp := *req
	r.reqs[req.ID] = &cp
	return nil
}

func (r *fakeFriendRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.reqs[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r *fakeFriendRepo) GetByPair(_ context.Context, userA, userB uuid.UUID) (*domain.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	probe := &domain.FriendRequest{FromID: userA, ToID: userB}
	for _, req := range r.reqs {
		if samePair(req, probe) {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFriendRepo) Accept(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.reqs[id]; ok {
		req.Status = domain.RequestAccepted
	}
	return nil
}

func (r *fakeFriendRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reqs, id)
	return nil
}

func (r *fakeFriendRepo) ListPendingIncoming(_ context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FriendRequest
	for _, req := range r.reqs {
		if req.ToID == userID && req.Status == domain.RequestPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeFriendRepo) ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.Friend, error) {
	ids, err := r.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	me, _ := r.users.GetByID(ctx, userID)

	var out []domain.Friend
	for _, id := range ids {
		peer, _ := r.users.GetByID(ctx, id)
		if peer == nil {
			continue
		}
		pinned := false
		if me != nil {
			for _, p := range me.PinnedPeers {
				if p == id {
					pinned = true
				}
			}
		}
		out = append(out, domain.Friend{
			ID:       peer.ID,
			Username: peer.Username,
			IsOnline: peer.IsOnline,
			LastSeen: peer.LastSeen,
			IsPinned: pinned,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

func (r *fakeFriendRepo) ListFriendIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for _, req := range r.reqs {
		if req.Status != domain.RequestAccepted {
			continue
		}
		switch userID {
		case req.FromID:
			out = append(out, req.ToID)
		case req.ToID:
			out = append(out, req.FromID)
		}
	}
	return out, nil
}

func (r *fakeFriendRepo) AreFriends(_ context.Context, userA, userB uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	probe := &domain.FriendRequest{FromID: userA, ToID: userB}
	for _, req := range r.reqs {
		if samePair(req, probe) && req.Status == domain.RequestAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFriendRepo) addAccepted(a, b uuid.UUID) *domain.FriendRequest {
	req := &domain.FriendRequest{
		ID:        uuid.New(),
		FromID:    a,
		ToID:      b,
		Status:    domain.RequestAccepted,
		CreatedAt: time.Now(),
	}
	r.mu.Lock()
	r.reqs[req.ID] = req
	r.mu.Unlock()
	return req
}

type fakeMessageRepo struct {
	mu         sync.Mutex
	msgs       []domain.Message
	failCreate bool
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("store unavailable")
	}
	r.msgs = append(r.msgs, *msg)
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.ID == id {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}

func pairMatches(m *domain.Message, userA, userB uuid.UUID) bool {
	return (m.FromID == userA && m.ToID == userB) || (m.FromID == userB && m.ToID == userA)
}

func (r *fakeMessageRepo) ListByPair(_ context.Context, userA, userB uuid.UUID, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.msgs {
		if pairMatches(&m, userA, userB) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMessageRepo) DeleteByPair(_ context.Context, userA, userB uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.msgs[:0]
	for _, m := range r.msgs {
		if !pairMatches(&m, userA, userB) {
			kept = append(kept, m)
		}
	}
	r.msgs = kept
	return nil
}

// recordingNotifier captures every push so tests can assert on fan-out
// decisions without a live hub.

type deliveredMessage struct {
	msg        *domain.Message
	nonce      string
	originConn uuid.UUID
}

type presenceChange struct {
	recipients []uuid.UUID
	userID     uuid.UUID
	online     bool
}

type removedNotice struct {
	userID    uuid.UUID
	removedBy uuid.UUID
}

type recordingNotifier struct {
	mu        sync.Mutex
	messages  []deliveredMessage
	requests  []*domain.FriendRequest
	added     []*domain.FriendRequest
	removed   []removedNotice
	presences []presenceChange
}

func (n *recordingNotifier) MessageDelivered(msg *domain.Message, nonce string, originConn uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, deliveredMessage{msg: msg, nonce: nonce, originConn: originConn})
}

func (n *recordingNotifier) FriendRequestReceived(req *domain.FriendRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requests = append(n.requests, req)
}

func (n *recordingNotifier) FriendAdded(req *domain.FriendRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.added = append(n.added, req)
}

func (n *recordingNotifier) FriendRemoved(userID, removedBy uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removed = append(n.removed, removedNotice{userID: userID, removedBy: removedBy})
}

func (n *recordingNotifier) PresenceChanged(recipients []uuid.UUID, userID uuid.UUID, online bool, _ time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.presences = append(n.presences, presenceChange{recipients: recipients, userID: userID, online: online})
}

// staticOnline marks a fixed set of users as having live connections.
type staticOnline map[uuid.UUID]bool

func (s staticOnline) IsOnline(userID uuid.UUID) bool { return s[userID] }
