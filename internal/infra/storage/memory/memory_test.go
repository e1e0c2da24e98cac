package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/scriptforge/internal/core/domain"
	"github.com/vietddude/scriptforge/internal/infra/storage"
)

func TestSessionRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(NewMemoryStorage())
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, &domain.ContentSession{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Title:     "title " + id,
		}))
	}

	got, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "title b", got.Title)

	list, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	require.NoError(t, repo.Delete(ctx, "c"))
	_, err = repo.Get(ctx, "c")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "c"), storage.ErrSessionNotFound)
}

func TestSessionRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(NewMemoryStorage())

	s := &domain.ContentSession{ID: "x", Title: "original"}
	require.NoError(t, repo.Save(ctx, s))
	s.Title = "mutated"

	got, err := repo.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)
}

func TestSessionRepo_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(NewMemoryStorage())
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "older", "new"} {
		require.NoError(t, repo.Save(ctx, &domain.ContentSession{
			ID:        id,
			CreatedAt: base.Add(-time.Duration(2-i) * 24 * time.Hour),
		}))
	}

	n, err := repo.DeleteOlderThan(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "new", left[0].ID)
}
