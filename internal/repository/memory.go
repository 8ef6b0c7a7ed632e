package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/query-system/internal/model"
)

// MemoryAccountRepo is an in-process AccountStore.  Records are copied on the
// way in and out, and every write replaces the whole record under the lock.
type MemoryAccountRepo struct {
	role    model.Role
	mu      sync.RWMutex
	byID    map[string]model.Account
	byEmail map[string]string
}

func NewMemoryAccountRepo(role model.Role) *MemoryAccountRepo {
	return &MemoryAccountRepo{
		role:    role,
		byID:    make(map[string]model.Account),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryAccountRepo) Create(ctx context.Context, a *model.Account) error {
	a.Email = NormalizeEmail(a.Email)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = nowUTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[a.Email]; ok {
		return ErrEmailExists
	}
	if _, ok := r.byID[a.ID]; ok {
		return ErrConflict
	}
	r.put(*a)
	return nil
}

func (r *MemoryAccountRepo) Save(ctx context.Context, a *model.Account) error {
	a.Email = NormalizeEmail(a.Email)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = nowUTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byEmail[a.Email]; ok && owner != a.ID {
		return ErrEmailExists
	}
	if prev, ok := r.byID[a.ID]; ok && prev.Email != a.Email {
		delete(r.byEmail, prev.Email)
	}
	r.put(*a)
	return nil
}

func (r *MemoryAccountRepo) put(a model.Account) {
	stored := a.Clone()
	stored.Role = r.role
	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
}

func (r *MemoryAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := a.Clone()
	return &out, nil
}

func (r *MemoryAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	out := r.byID[id].Clone()
	return &out, nil
}

// MemoryQueryRepo is an in-process QueryStore with version-checked updates.
type MemoryQueryRepo struct {
	mu   sync.RWMutex
	byID map[string]model.Query
}

func NewMemoryQueryRepo() *MemoryQueryRepo {
	return &MemoryQueryRepo{byID: make(map[string]model.Query)}
}

func (r *MemoryQueryRepo) Create(ctx context.Context, q *model.Query) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = nowUTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[q.ID]; ok {
		return ErrConflict
	}
	q.Version = 1
	r.byID[q.ID] = q.Clone()
	return nil
}

func (r *MemoryQueryRepo) Update(ctx context.Context, q *model.Query) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[q.ID]
	if !ok || cur.Version != q.Version {
		return ErrConflict
	}
	next := q.Clone()
	// immutable columns stay as first written
	next.UserID = cur.UserID
	next.OriginalQuery = cur.OriginalQuery
	next.CreatedAt = cur.CreatedAt
	next.Version = cur.Version + 1
	r.byID[q.ID] = next
	q.Version = next.Version
	return nil
}

func (r *MemoryQueryRepo) FindByID(ctx context.Context, id string) (*model.Query, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := q.Clone()
	return &out, nil
}

func (r *MemoryQueryRepo) FindByUser(ctx context.Context, userID string) ([]model.Query, error) {
	return r.filter(func(q model.Query) bool { return q.UserID == userID }), nil
}

func (r *MemoryQueryRepo) FindAll(ctx context.Context, status model.Status) ([]model.Query, error) {
	return r.filter(func(q model.Query) bool { return status == "" || q.Status == status }), nil
}

func (r *MemoryQueryRepo) filter(keep func(model.Query) bool) []model.Query {
	r.mu.RLock()
	out := []model.Query{}
	for _, q := range r.byID {
		if keep(q) {
			out = append(out, q.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
