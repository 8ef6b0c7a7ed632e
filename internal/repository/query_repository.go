package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/query-system/internal/model"
)

const queryColumns = "id,user_id,original_query,category,priority,status,answered,is_read,admin_reply,created_at,replied_at,version"

// QueryRepo is the MySQL-backed QueryStore.
type QueryRepo struct{ DB *sql.DB }

func NewQueryRepo(db *sql.DB) *QueryRepo { return &QueryRepo{DB: db} }

// Create inserts a new query row with version 1.
func (r *QueryRepo) Create(ctx context.Context, q *model.Query) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = nowUTC()
	}
	q.Version = 1
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO queries ("+queryColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?)",
		q.ID, q.UserID, q.OriginalQuery, q.Category, string(q.Priority), string(q.Status),
		q.Answered, q.IsRead, q.AdminReply, q.CreatedAt, q.RepliedAt, q.Version)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update writes every mutable column of q, guarded by its version.  Zero rows
// affected means another writer got there first (or the row is gone); the
// caller reloads to tell the two apart.
func (r *QueryRepo) Update(ctx context.Context, q *model.Query) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE queries
		    SET category=?, priority=?, status=?, answered=?, is_read=?, admin_reply=?, replied_at=?, version=version+1
		  WHERE id=? AND version=?`,
		q.Category, string(q.Priority), string(q.Status), q.Answered, q.IsRead, q.AdminReply, q.RepliedAt,
		q.ID, q.Version)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	q.Version++
	return nil
}

// FindByID fetches a single query.
func (r *QueryRepo) FindByID(ctx context.Context, id string) (*model.Query, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+queryColumns+" FROM queries WHERE id=? LIMIT 1", id)
	q, err := scanQuery(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return q, nil
}

// FindByUser lists a user's queries, oldest first.
func (r *QueryRepo) FindByUser(ctx context.Context, userID string) ([]model.Query, error) {
	return r.list(ctx,
		"SELECT "+queryColumns+" FROM queries WHERE user_id=? ORDER BY created_at, id", userID)
}

// FindAll lists every query, optionally restricted to one status.
func (r *QueryRepo) FindAll(ctx context.Context, status model.Status) ([]model.Query, error) {
	if status == "" {
		return r.list(ctx, "SELECT "+queryColumns+" FROM queries ORDER BY created_at, id")
	}
	return r.list(ctx,
		"SELECT "+queryColumns+" FROM queries WHERE status=? ORDER BY created_at, id", string(status))
}

func (r *QueryRepo) list(ctx context.Context, query string, args ...any) ([]model.Query, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []model.Query{}
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuery(s rowScanner) (*model.Query, error) {
	var (
		q         model.Query
		priority  string
		status    string
		reply     sql.NullString
		repliedAt sql.NullTime
	)
	if err := s.Scan(&q.ID, &q.UserID, &q.OriginalQuery, &q.Category, &priority, &status,
		&q.Answered, &q.IsRead, &reply, &q.CreatedAt, &repliedAt, &q.Version); err != nil {
		return nil, err
	}
	q.Priority = model.Priority(priority)
	q.Status = model.Status(status)
	q.CreatedAt = q.CreatedAt.UTC()
	if reply.Valid {
		r := reply.String
		q.AdminReply = &r
	}
	if repliedAt.Valid {
		t := repliedAt.Time.UTC()
		q.RepliedAt = &t
	}
	return &q, nil
}
