package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetracker/internal/storage"
	"timetracker/internal/testutil"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := storage.NewUserRepo(db)
	ctx := context.Background()

	created, err := repo.Register(ctx, "Jess Doe", "jess@example.com", "hunter2!")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	user, err := repo.Authenticate(ctx, "jess@example.com", "hunter2!")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, "Jess Doe", user.FullName)
	assert.False(t, user.IsAdmin)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin, "authenticate stamps last_login")
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := storage.NewUserRepo(db)
	ctx := context.Background()

	_, err := repo.Register(ctx, "Jess Doe", "jess@example.com", "hunter2!")
	require.NoError(t, err)

	_, err = repo.Authenticate(ctx, "jess@example.com", "wrong")
	assert.ErrorIs(t, err, storage.ErrInvalidCredentials)

	_, err = repo.Authenticate(ctx, "nobody@example.com", "hunter2!")
	assert.ErrorIs(t, err, storage.ErrInvalidCredentials, "unknown email and bad password are indistinguishable")
}

func TestAuthenticateRejectsInactiveAccount(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := storage.NewUserRepo(db)
	ctx := context.Background()

	created, err := repo.Register(ctx, "Jess Doe", "jess@example.com", "hunter2!")
	require.NoError(t, err)
	require.NoError(t, repo.SetActive(ctx, created.ID, false))

	_, err = repo.Authenticate(ctx, "jess@example.com", "hunter2!")
	assert.ErrorIs(t, err, storage.ErrAccountInactive)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.DeactivatedAt)

	require.NoError(t, repo.SetActive(ctx, created.ID, true))
	_, err = repo.Authenticate(ctx, "jess@example.com", "hunter2!")
	assert.NoError(t, err)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := storage.NewUserRepo(db)
	ctx := context.Background()

	_, err := repo.Register(ctx, "Jess Doe", "jess@example.com", "hunter2!")
	require.NoError(t, err)

	_, err = repo.Register(ctx, "Other Person", "jess@example.com", "different")
	assert.ErrorIs(t, err, storage.ErrEmailTaken)
}

func TestListUsersPaginationAndSearch(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := storage.NewUserRepo(db)
	ctx := context.Background()

	emails := []string{"a@corp.com", "b@corp.com", "c@corp.com", "d@other.com"}
	for _, email := range emails {
		_, err := repo.Register(ctx, "Employee "+email, email, "pw")
		require.NoError(t, err)
	}

	page, total, err := repo.List(ctx, 1, 3, "")
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, page, 3)

	page, total, err = repo.List(ctx, 2, 3, "")
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, page, 1)

	page, total, err = repo.List(ctx, 1, 10, "corp")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, page, 3)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := storage.NewUserRepo(db)
	ctx := context.Background()

	created, err := repo.Register(ctx, "Jess Doe", "jess@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, created.ID, "Jess Smith", "jess.smith@example.com", true))
	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jess Smith", stored.FullName)
	assert.True(t, stored.IsAdmin)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, repo.Update(ctx, "missing", "x", "y", false), storage.ErrNotFound)
}
