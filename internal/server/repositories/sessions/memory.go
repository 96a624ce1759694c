package sessions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

// MemoryRepository keeps sessions in process. Returned sessions are copies,
// so callers never alias stored state.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]*models.Session)}
}

func (r *MemoryRepository) Create(_ context.Context, s *models.Session) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.create(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Session, 0)
	for _, s := range r.sessions {
		if s.OwnerID == ownerID {
			result = append(result, s.Clone())
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	return result, nil
}

func (r *MemoryRepository) Get(_ context.Context, id, ownerID string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok || s.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return s.Clone(), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.remove(id, ownerID)
}

func (r *MemoryRepository) AppendMessages(_ context.Context, sessionID string, messages ...models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.appendMessages(sessionID, messages)
}

func (r *MemoryRepository) AddUsage(_ context.Context, sessionID string, delta models.UsageStats, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.addUsage(sessionID, delta, at)
}

// The helpers below expect r.mu to be held for writing.

func (r *MemoryRepository) create(s *models.Session) error {
	if _, ok := r.sessions[s.ID]; ok {
		return common.ErrorAlreadyExists
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *MemoryRepository) remove(id, ownerID string) error {
	s, ok := r.sessions[id]
	if !ok || s.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *MemoryRepository) appendMessages(sessionID string, messages []models.Message) error {
	s, ok := r.sessions[sessionID]
	if !ok {
		return common.ErrorNotFound
	}
	s.Messages = append(s.Messages, messages...)
	return nil
}

func (r *MemoryRepository) addUsage(sessionID string, delta models.UsageStats, at time.Time) error {
	s, ok := r.sessions[sessionID]
	if !ok {
		return common.ErrorNotFound
	}
	s.Stats.PromptTokens += delta.PromptTokens
	s.Stats.CompletionTokens += delta.CompletionTokens
	s.Stats.TotalTokens += delta.TotalTokens
	s.Stats.EstimatedCost += delta.EstimatedCost
	s.UpdatedAt = at
	return nil
}

// Tracked returns a view of the store that remembers the prior state of
// every session it writes. Rollback undoes those writes and nothing else.
func (r *MemoryRepository) Tracked() *TrackedRepository {
	return &TrackedRepository{
		MemoryRepository: r,
		before:           make(map[string]*models.Session),
		deleted:          make(map[string]struct{}),
	}
}

// TrackedRepository reads straight through to the store. A nil entry in
// before means the session did not exist when the view first wrote it.
type TrackedRepository struct {
	*MemoryRepository
	before  map[string]*models.Session
	deleted map[string]struct{}
}

func (t *TrackedRepository) Create(_ context.Context, s *models.Session) (*models.Session, error) {
	if err := t.track(s.ID, false, func() error { return t.create(s) }); err != nil {
		return nil, err
	}
	return s, nil
}

func (t *TrackedRepository) Delete(_ context.Context, id, ownerID string) error {
	return t.track(id, true, func() error { return t.remove(id, ownerID) })
}

func (t *TrackedRepository) AppendMessages(_ context.Context, sessionID string, messages ...models.Message) error {
	return t.track(sessionID, false, func() error { return t.appendMessages(sessionID, messages) })
}

func (t *TrackedRepository) AddUsage(_ context.Context, sessionID string, delta models.UsageStats, at time.Time) error {
	return t.track(sessionID, false, func() error { return t.addUsage(sessionID, delta, at) })
}

func (t *TrackedRepository) track(id string, deletes bool, op func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, seen := t.before[id]
	var prev *models.Session
	if s, ok := t.sessions[id]; ok && !seen {
		prev = s.Clone()
	}
	if err := op(); err != nil {
		return err
	}
	if !seen {
		t.before[id] = prev
	}
	if deletes {
		t.deleted[id] = struct{}{}
	}
	return nil
}

// Rollback puts back the sessions this view wrote. A session someone else
// deleted in the meantime stays deleted.
func (t *TrackedRepository) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, prev := range t.before {
		if prev == nil {
			delete(t.sessions, id)
			continue
		}
		_, exists := t.sessions[id]
		if _, removedHere := t.deleted[id]; exists || removedHere {
			t.sessions[id] = prev
		}
	}
}
