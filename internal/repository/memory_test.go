package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/query-system/internal/model"
)

func TestMemoryAccount_EmailUniquePerStore(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryAccountRepo(model.RoleUser)
	mentors := NewMemoryAccountRepo(model.RoleMentor)

	require.NoError(t, users.Create(ctx, &model.Account{ID: "U1", Email: "x@example.com"}))
	assert.ErrorIs(t, users.Create(ctx, &model.Account{ID: "U2", Email: "X@example.com"}), ErrEmailExists)
	// another role keeps its own directory
	assert.NoError(t, mentors.Create(ctx, &model.Account{ID: "M1", Email: "x@example.com"}))
}

func TestMemoryAccount_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepo(model.RoleUser)
	a := &model.Account{ID: "U1", Email: "a@example.com", Profile: model.Profile{"name": "A"}}
	a.SetOTP("111111", time.Now().Add(time.Minute))
	require.NoError(t, repo.Create(ctx, a))

	a.Profile["name"] = "mutated"
	*a.OTPCode = "999999"

	got, err := repo.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Profile["name"])
	assert.Equal(t, "111111", *got.OTPCode)
	assert.Equal(t, model.RoleUser, got.Role)
}

func TestMemoryAccount_SaveReplacesRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAccountRepo(model.RoleAdmin)

	a := &model.Account{ID: "A1", Email: "root@example.com"}
	require.NoError(t, repo.Save(ctx, a))
	a.Active = true
	a.SetOTP("123456", time.Now())
	require.NoError(t, repo.Save(ctx, a))
	a.ClearOTP()
	require.NoError(t, repo.Save(ctx, a))

	got, err := repo.FindByID(ctx, "A1")
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Nil(t, got.OTPCode)
	assert.Nil(t, got.OTPExpiry)
}

func TestMemoryAccount_NotFound(t *testing.T) {
	repo := NewMemoryAccountRepo(model.RoleUser)
	_, err := repo.FindByID(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FindByEmail(context.Background(), "x@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryQuery_VersionCheck(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryQueryRepo()
	q := &model.Query{ID: "Q1", UserID: "U1", Status: model.StatusNew}
	require.NoError(t, repo.Create(ctx, q))
	assert.Equal(t, int64(1), q.Version)

	stale := q.Clone()

	q.IsRead = true
	require.NoError(t, repo.Update(ctx, q))
	assert.Equal(t, int64(2), q.Version)

	stale.Resolve("done", time.Now())
	assert.ErrorIs(t, repo.Update(ctx, &stale), ErrConflict)

	got, err := repo.FindByID(ctx, "Q1")
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	assert.Equal(t, model.StatusNew, got.Status)
}

func TestMemoryQuery_UpdateUnknown(t *testing.T) {
	repo := NewMemoryQueryRepo()
	assert.ErrorIs(t, repo.Update(context.Background(), &model.Query{ID: "nope", Version: 1}), ErrConflict)
}

func TestMemoryQuery_ListingOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryQueryRepo()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &model.Query{ID: "Q2", UserID: "U1", Status: model.StatusNew, CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &model.Query{ID: "Q1", UserID: "U1", Status: model.StatusResolved, CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &model.Query{ID: "Q3", UserID: "U2", Status: model.StatusNew, CreatedAt: base}))

	mine, err := repo.FindByUser(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Q1", mine[0].ID)
	assert.Equal(t, "Q2", mine[1].ID)

	fresh, err := repo.FindAll(ctx, model.StatusNew)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Equal(t, "Q3", fresh[0].ID)

	none, err := repo.FindAll(ctx, "PENDING")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	all, err := repo.FindAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryQuery_ConcurrentUpdatesSerialise(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryQueryRepo()
	require.NoError(t, repo.Create(ctx, &model.Query{ID: "Q1", UserID: "U1"}))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := model.Query{ID: "Q1", UserID: "U1", Version: 1, IsRead: true}
			if repo.Update(ctx, &q) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
