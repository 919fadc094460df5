package internal

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileRepo(t *testing.T) (*FileSubmissionRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "submissions.json")
	repo, err := NewFileSubmissionRepository(path)
	require.NoError(t, err)
	return repo, path
}

func TestNewFileSubmissionRepositoryInitialisesFile(t *testing.T) {
	_, path := newFileRepo(t)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))

	_, err = NewFileSubmissionRepository("")
	assert.Error(t, err)
}

func TestNewFileSubmissionRepositoryKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "submissions.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"id": "aaaaaaaa-0000-7000-8000-000000000000", "data": {"name": "Ann"}, "createdAt": "2025-01-01T12:00:00Z"}
]`), 0o644))

	repo, err := NewFileSubmissionRepository(path)
	require.NoError(t, err)

	s, err := repo.Get(context.Background(), uuid.MustParse("aaaaaaaa-0000-7000-8000-000000000000"))
	require.NoError(t, err)
	assert.Equal(t, "Ann", s.Data.Get("name").String())
	assert.Nil(t, s.UpdatedAt)
}

func TestFileSubmissionRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo, path := newFileRepo(t)

	sub := &dynform.Submission{
		ID: uuid.MustParse("aaaaaaaa-0000-7000-8000-000000000000"),
		Data: dynform.ValueSet{
			"name":   dynform.StringValue("Ann"),
			"age":    dynform.NumberValue(30),
			"skills": dynform.StringsValue("go"),
			"terms":  dynform.BoolValue(true),
		},
		CreatedAt: baseTime,
	}
	require.NoError(t, repo.Insert(ctx, sub))

	got, err := repo.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)
	assert.True(t, sub.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, sub.Data.ToMap(), got.Data.ToMap())

	updatedAt := baseTime.Add(time.Hour)
	changed := &dynform.Submission{
		ID:        sub.ID,
		Data:      dynform.ValueSet{"name": dynform.StringValue("Anne")},
		CreatedAt: sub.CreatedAt,
		UpdatedAt: &updatedAt,
	}
	require.NoError(t, repo.Update(ctx, changed))

	got, err = repo.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Anne"}, got.Data.ToMap())
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, updatedAt.Equal(*got.UpdatedAt))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {", "file is indented")

	require.NoError(t, repo.Delete(ctx, sub.ID))
	_, err = repo.Get(ctx, sub.ID)
	assert.True(t, dynform.IsNotFoundError(err))
}

func TestFileSubmissionRepositoryUnencodableData(t *testing.T) {
	ctx := context.Background()
	repo, path := newFileRepo(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = repo.Insert(ctx, &dynform.Submission{
		ID:        uuid.New(),
		Data:      dynform.ValueSet{"score": dynform.NumberValue(math.Inf(1))},
		CreatedAt: baseTime,
	})
	require.Error(t, err)
	assert.True(t, dynform.IsInternalError(err))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileSubmissionRepositoryMissingID(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFileRepo(t)
	id := uuid.New()

	_, err := repo.Get(ctx, id)
	assert.True(t, dynform.IsNotFoundError(err))
	assert.True(t, dynform.IsNotFoundError(repo.Update(ctx, &dynform.Submission{ID: id})))
	assert.True(t, dynform.IsNotFoundError(repo.Delete(ctx, id)))
}

func TestFileSubmissionRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFileRepo(t)
	for _, s := range querySubs() {
		require.NoError(t, repo.Insert(ctx, s))
	}

	page, total, err := repo.List(ctx, &dynform.ListOptions{SortBy: "name", SortOrder: dynform.SortOrderAsc, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"cccccccc", "aaaaaaaa"}, ids(page))

	page, total, err = repo.List(ctx, &dynform.ListOptions{Search: "PYTHON"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []string{"aaaaaaaa"}, ids(page))
}

func TestFileSubmissionRepositoryCorruptFile(t *testing.T) {
	repo, path := newFileRepo(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, err := repo.List(context.Background(), nil)
	assert.True(t, dynform.IsStorageError(err))
}

func TestFileSubmissionRepositoryCancelledContext(t *testing.T) {
	repo, _ := newFileRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.Insert(ctx, &dynform.Submission{ID: uuid.New()}), context.Canceled)
	_, _, err := repo.List(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSubmissionRepositoryConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFileRepo(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Insert(ctx, &dynform.Submission{
				ID:        uuid.New(),
				Data:      dynform.ValueSet{"n": dynform.NumberValue(1)},
				CreatedAt: time.Now().UTC(),
			}))
		}()
	}
	wg.Wait()

	_, total, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, total)
}
