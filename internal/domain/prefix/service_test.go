package prefix_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/prefix"
	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

type MockRepository struct {
	UpsertFunc  func(ctx context.Context, guildID, p string) error
	FindFunc    func(ctx context.Context, guildID string) (string, bool, error)
	FindAllFunc func(ctx context.Context) ([]prefix.Record, error)

	finds int
}

func (m *MockRepository) Upsert(ctx context.Context, guildID, p string) error {
	return m.UpsertFunc(ctx, guildID, p)
}

func (m *MockRepository) Find(ctx context.Context, guildID string) (string, bool, error) {
	m.finds++
	if m.FindFunc == nil {
		return "", false, nil
	}
	return m.FindFunc(ctx, guildID)
}

func (m *MockRepository) FindAll(ctx context.Context) ([]prefix.Record, error) {
	return m.FindAllFunc(ctx)
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]string
	// setErr and deleteErr, when set, fail every write of that kind.
	setErr    error
	deleteErr error
}

func newMapCache() *mapCache { return &mapCache{m: map[string]string{}} }

func (c *mapCache) Get(_ context.Context, guildID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[guildID]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, guildID, p string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.m[guildID] = p
	return nil
}

func (c *mapCache) Delete(_ context.Context, guildID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	delete(c.m, guildID)
	return nil
}

func TestWarmAndResolve(t *testing.T) {
	repo := &MockRepository{FindAllFunc: func(context.Context) ([]prefix.Record, error) {
		return []prefix.Record{{GuildID: "g1", Prefix: "!"}, {GuildID: "g2", Prefix: "cd."}}, nil
	}}
	svc := prefix.NewService(repo, newMapCache(), "~", zerolog.Nop())

	require.NoError(t, svc.Warm(context.Background()))

	assert.Equal(t, "!", svc.Resolve(context.Background(), "g1"))
	assert.Equal(t, "cd.", svc.Resolve(context.Background(), "g2"))
	assert.Equal(t, "~", svc.Resolve(context.Background(), ""))
	assert.Equal(t, 0, repo.finds)
}

func TestResolve_MissReadsThroughOnce(t *testing.T) {
	repo := &MockRepository{}
	svc := prefix.NewService(repo, newMapCache(), "~", zerolog.Nop())

	assert.Equal(t, "~", svc.Resolve(context.Background(), "g3"))
	assert.Equal(t, "~", svc.Resolve(context.Background(), "g3"))
	assert.Equal(t, 1, repo.finds)
}

func TestResolve_StoreErrorFallsBackWithoutCaching(t *testing.T) {
	repo := &MockRepository{FindFunc: func(context.Context, string) (string, bool, error) {
		return "", false, errors.New("connection refused")
	}}
	cache := newMapCache()
	svc := prefix.NewService(repo, cache, "~", zerolog.Nop())

	assert.Equal(t, "~", svc.Resolve(context.Background(), "g1"))
	_, cached := cache.Get(context.Background(), "g1")
	assert.False(t, cached)
}

func TestSetPrefix_WritesThrough(t *testing.T) {
	var stored []string
	repo := &MockRepository{UpsertFunc: func(_ context.Context, guildID, p string) error {
		stored = append(stored, guildID+"="+p)
		return nil
	}}
	cache := newMapCache()
	svc := prefix.NewService(repo, cache, "~", zerolog.Nop())

	require.NoError(t, svc.SetPrefix(context.Background(), "g1", " >> "))

	assert.Equal(t, []string{"g1=>>"}, stored)
	assert.Equal(t, ">>", svc.Resolve(context.Background(), "g1"))
}

func TestSetPrefix_FailedWriteLeavesCacheUnchanged(t *testing.T) {
	repo := &MockRepository{UpsertFunc: func(context.Context, string, string) error {
		return errors.New("write conflict")
	}}
	cache := newMapCache()
	require.NoError(t, cache.Set(context.Background(), "g1", "!"))
	svc := prefix.NewService(repo, cache, "~", zerolog.Nop())

	err := svc.SetPrefix(context.Background(), "g1", "?")
	require.Error(t, err)

	assert.Equal(t, "!", svc.Resolve(context.Background(), "g1"))
	assert.False(t, platformerrors.IsUserFacing(platformerrors.TypeOf(err)))
}

func TestSetPrefix_CacheFailureInvalidatesEntry(t *testing.T) {
	stored := map[string]string{"g1": "!"}
	repo := &MockRepository{
		FindAllFunc: func(context.Context) ([]prefix.Record, error) {
			return []prefix.Record{{GuildID: "g1", Prefix: stored["g1"]}}, nil
		},
		UpsertFunc: func(_ context.Context, guildID, p string) error {
			stored[guildID] = p
			return nil
		},
		FindFunc: func(_ context.Context, guildID string) (string, bool, error) {
			p, ok := stored[guildID]
			return p, ok, nil
		},
	}
	cache := newMapCache()
	svc := prefix.NewService(repo, cache, "~", zerolog.Nop())
	require.NoError(t, svc.Warm(context.Background()))
	require.Equal(t, "!", svc.Resolve(context.Background(), "g1"))

	cache.setErr = errors.New("READONLY You can't write against a read only replica.")
	require.NoError(t, svc.SetPrefix(context.Background(), "g1", "?"))

	_, cached := cache.Get(context.Background(), "g1")
	assert.False(t, cached, "stale entry is dropped")
	assert.Equal(t, "?", svc.Resolve(context.Background(), "g1"))
	assert.Equal(t, 1, repo.finds)
}

func TestSetPrefix_CacheInvalidationFailureIsReported(t *testing.T) {
	repo := &MockRepository{UpsertFunc: func(context.Context, string, string) error { return nil }}
	cache := newMapCache()
	require.NoError(t, cache.Set(context.Background(), "g1", "!"))
	cache.setErr = errors.New("connection reset by peer")
	cache.deleteErr = errors.New("connection reset by peer")
	svc := prefix.NewService(repo, cache, "~", zerolog.Nop())

	err := svc.SetPrefix(context.Background(), "g1", "?")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeInternal))
	assert.False(t, platformerrors.IsUserFacing(platformerrors.TypeOf(err)))
}

func TestSetPrefix_Validation(t *testing.T) {
	repo := &MockRepository{UpsertFunc: func(context.Context, string, string) error {
		t.Fatal("invalid prefix must not be stored")
		return nil
	}}
	svc := prefix.NewService(repo, newMapCache(), "~", zerolog.Nop())

	tests := []struct {
		name  string
		value string
		msg   string
	}{
		{"too long", "abcdefg", "Prefix length can't exceed 6 characters."},
		{"blank", "   ", "prefix is a required argument that is missing."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SetPrefix(context.Background(), "g1", tt.value)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeInvalidInput))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	// six multi-byte characters are accepted
	repo.UpsertFunc = func(context.Context, string, string) error { return nil }
	assert.NoError(t, svc.SetPrefix(context.Background(), "g1", "ॐॐॐॐॐॐ"))
}

func TestWarm_Failure(t *testing.T) {
	repo := &MockRepository{FindAllFunc: func(context.Context) ([]prefix.Record, error) {
		return nil, errors.New("no route to host")
	}}
	svc := prefix.NewService(repo, newMapCache(), "~", zerolog.Nop())
	assert.Error(t, svc.Warm(context.Background()))
}
