package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/query-system/internal/idgen"
	"github.com/iliyamo/query-system/internal/logging"
	"github.com/iliyamo/query-system/internal/model"
	"github.com/iliyamo/query-system/internal/repository"
	"github.com/iliyamo/query-system/internal/triage"
)

// maxWriteAttempts bounds the reload-and-reapply loop on version conflicts.
const maxWriteAttempts = 5

// QueryNotifier sends the emails of the query lifecycle.
type QueryNotifier interface {
	NewQuery(ctx context.Context, q model.Query)
	Reply(ctx context.Context, to string, q model.Query)
}

// QueryService implements submission, listing and resolution of support
// queries.
type QueryService struct {
	queries  repository.QueryStore
	users    repository.AccountStore
	ids      idgen.Generator
	notifier QueryNotifier
	log      logging.Logger

	// Now stamps creation and reply times.
	Now func() time.Time
}

func NewQueryService(queries repository.QueryStore, users repository.AccountStore, ids idgen.Generator,
	notifier QueryNotifier, log logging.Logger) *QueryService {
	if log == nil {
		log = logging.Discard()
	}
	return &QueryService{
		queries:  queries,
		users:    users,
		ids:      ids,
		notifier: notifier,
		log:      log,
		Now:      time.Now,
	}
}

func (s *QueryService) now() time.Time { return s.Now().UTC() }

// Submit stores a new query for userID with a priority derived from its text
// and alerts the administrator.
func (s *QueryService) Submit(ctx context.Context, userID, category, text string) (*model.Query, error) {
	q := &model.Query{
		ID:            s.ids.NewID(),
		UserID:        userID,
		OriginalQuery: text,
		Category:      category,
		Priority:      triage.Classify(text),
		Status:        model.StatusNew,
		CreatedAt:     s.now(),
	}
	if err := s.queries.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create query: %w", err)
	}
	s.notifier.NewQuery(ctx, *q)
	s.log.Info(ctx, "query submitted", "query_id", q.ID, "user_id", userID, "priority", string(q.Priority))
	return q, nil
}

// ListForUser returns userID's queries, oldest first, as they were before
// the call, and marks every unread one as read.
func (s *QueryService) ListForUser(ctx context.Context, userID string) ([]model.Query, error) {
	list, err := s.queries.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	for _, q := range list {
		if q.IsRead {
			continue
		}
		if err := s.markRead(ctx, q.Clone()); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// markRead flags seen as read.  If the record changed since it was listed,
// the flag is only applied when the change was not a new reply, which the
// caller has not seen yet.
func (s *QueryService) markRead(ctx context.Context, seen model.Query) error {
	cur := seen
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		if cur.IsRead || repliedSince(seen, cur) {
			return nil
		}
		cur.IsRead = true
		err := s.queries.Update(ctx, &cur)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("mark query %s read: %w", seen.ID, err)
		}
		next, err := s.queries.FindByID(ctx, seen.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("reload query %s: %w", seen.ID, err)
		}
		cur = *next
	}
	return fmt.Errorf("mark query %s read: %w", seen.ID, repository.ErrConflict)
}

func repliedSince(seen, cur model.Query) bool {
	if cur.RepliedAt == nil {
		return false
	}
	return seen.RepliedAt == nil || !seen.RepliedAt.Equal(*cur.RepliedAt)
}

// ListAll returns every query, or only those whose status equals status
// when it is non-empty.  It has no side effects.
func (s *QueryService) ListAll(ctx context.Context, status string) ([]model.Query, error) {
	list, err := s.queries.FindAll(ctx, model.Status(status))
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	return list, nil
}

// Resolve records the administrator's reply and emails the owner.  When the
// owner account is missing the resolution is kept and ErrOwnerNotFound is
// returned together with the stored query.
func (s *QueryService) Resolve(ctx context.Context, queryID, reply string) (*model.Query, error) {
	q, err := s.resolve(ctx, queryID, reply)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "query resolved", "query_id", q.ID)

	owner, err := s.users.FindByID(ctx, q.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn(ctx, "resolved query has no owner", "query_id", q.ID, "user_id", q.UserID)
			return q, ErrOwnerNotFound
		}
		return q, fmt.Errorf("lookup owner: %w", err)
	}
	s.notifier.Reply(ctx, owner.Email, *q)
	return q, nil
}

func (s *QueryService) resolve(ctx context.Context, queryID, reply string) (*model.Query, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		q, err := s.queries.FindByID(ctx, queryID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrQueryNotFound
			}
			return nil, fmt.Errorf("load query: %w", err)
		}
		q.Resolve(reply, s.now())
		err = s.queries.Update(ctx, q)
		if err == nil {
			return q, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("resolve query %s: %w", queryID, err)
		}
	}
	return nil, fmt.Errorf("resolve query %s: %w", queryID, repository.ErrConflict)
}
