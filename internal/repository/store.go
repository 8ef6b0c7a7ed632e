package repository

import (
	"context"

	"github.com/iliyamo/query-system/internal/model"
)

// AccountStore is one account directory (users, mentors or admins).  Every
// write replaces the whole record.
type AccountStore interface {
	// Create inserts a new account; ErrEmailExists on a duplicate email.
	Create(ctx context.Context, a *model.Account) error
	// Save writes the full record, inserting it when the id is unknown.
	Save(ctx context.Context, a *model.Account) error
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
}

// QueryStore persists support queries.
type QueryStore interface {
	// Create inserts q and sets q.Version to 1.
	Create(ctx context.Context, q *model.Query) error
	// Update writes q if the stored version equals q.Version, then bumps
	// q.Version.  ErrConflict otherwise.
	Update(ctx context.Context, q *model.Query) error
	FindByID(ctx context.Context, id string) (*model.Query, error)
	// FindByUser returns the user's queries ordered by creation.
	FindByUser(ctx context.Context, userID string) ([]model.Query, error)
	// FindAll returns every query, or only those with the given status when
	// status is non-empty.
	FindAll(ctx context.Context, status model.Status) ([]model.Query, error)
}
