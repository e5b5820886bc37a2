package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"realtime-users/internal/domain/account"
	apperrors "realtime-users/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// every pooled connection to ":memory:" would open its own empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	// Migrate the schema
	require.NoError(t, Migrate(db))

	return db
}

func TestAccountRepoPG_CreateAndGetByEmail(t *testing.T) {
	repo := NewAccountRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()

	a := &account.Account{ID: "acc-1", Email: "Alice@Example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, a))
	assert.False(t, a.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "acc-1", got.ID)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)

	// lookups ignore case
	got, err = repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestAccountRepoPG_GetByEmail_NotFound(t *testing.T) {
	repo := NewAccountRepoPG(setupTestDB(t), zaptest.NewLogger(t))

	got, err := repo.GetByEmail(context.Background(), "nobody@example.com")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestAccountRepoPG_Create_DuplicateEmail(t *testing.T) {
	repo := NewAccountRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &account.Account{ID: "acc-1", Email: "a@example.com", PasswordHash: "h", CreatedAt: time.Now()}))
	err := repo.Create(ctx, &account.Account{ID: "acc-2", Email: "A@example.com", PasswordHash: "h", CreatedAt: time.Now()})

	var existsErr *apperrors.AlreadyExistsError
	assert.ErrorAs(t, err, &existsErr)
}

func TestAccountRepoPG_Create_Nil(t *testing.T) {
	repo := NewAccountRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	assert.Error(t, repo.Create(context.Background(), nil))
}

func TestAccountRepoPG_GetByID(t *testing.T) {
	repo := NewAccountRepoPG(setupTestDB(t), zaptest.NewLogger(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &account.Account{ID: "acc-1", Email: "a@example.com", PasswordHash: "h"}))

	got, err := repo.GetByID(ctx, "acc-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a@example.com", got.Email)

	got, err = repo.GetByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
