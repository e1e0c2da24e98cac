package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/scriptforge/internal/core/domain"
	"github.com/vietddude/scriptforge/internal/infra/storage"
)

// MemoryStorage keeps session history in process memory.
type MemoryStorage struct {
	sessions map[string]*domain.ContentSession
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[string]*domain.ContentSession),
	}
}

// -----------------------------------------------------------------------------
// Session Repository
// -----------------------------------------------------------------------------

type SessionRepo struct {
	store *MemoryStorage
}

func NewSessionRepo(store *MemoryStorage) *SessionRepo {
	return &SessionRepo{store: store}
}

func (r *SessionRepo) Save(ctx context.Context, session *domain.ContentSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *session
	r.store.sessions[session.ID] = &cp
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*domain.ContentSession, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	s, ok := r.store.sessions[id]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *SessionRepo) List(ctx context.Context, limit int) ([]*domain.ContentSession, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	r.store.mu.RLock()
	out := make([]*domain.ContentSession, 0, len(r.store.sessions))
	for _, s := range r.store.sessions {
		cp := *s
		out = append(out, &cp)
	}
	r.store.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.sessions[id]; !ok {
		return storage.ErrSessionNotFound
	}
	delete(r.store.sessions, id)
	return nil
}

func (r *SessionRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	n := 0
	for id, s := range r.store.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(r.store.sessions, id)
			n++
		}
	}
	return n, nil
}
