package session

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Foy7er/FinQuest/internal/quiz"
	"github.com/Foy7er/FinQuest/internal/service"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(8, time.Minute)
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, &Session{UserID: 1, Stage: StageBankAwaitingAmount, Direction: service.ToSavings}))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StageBankAwaitingAmount, got.Stage)
	assert.Equal(t, service.ToSavings, got.Direction)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(8, 0)
	require.NoError(t, err)

	s := &Session{UserID: 1, Stage: StageAwaitingClass, Name: "Nova"}
	require.NoError(t, store.Save(ctx, s))
	s.Name = "changed"

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Nova", got.Name)
}

func TestMemoryStoreEviction(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(2, 0)
	require.NoError(t, err)

	for id := int64(1); id <= 3; id++ {
		require.NoError(t, store.Save(ctx, &Session{UserID: id, Stage: StageShopBrowsing}))
	}

	assert.Equal(t, 2, store.Len())
	_, err = store.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNoSession, "oldest session is evicted")

	require.NoError(t, store.Delete(ctx, 3))
	_, err = store.Get(ctx, 3)
	assert.ErrorIs(t, err, ErrNoSession)
}

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

// setupRedis starts a Redis container. Skips the test if Docker is not
// available.
func setupRedis(t *testing.T) (*RedisStore, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	store, err := NewRedisStore(ctx, RedisConfig{Addr: endpoint, KeyPrefix: "test:session", TTL: time.Minute})
	require.NoError(t, err)

	cleanup := func() {
		_ = store.Close()
		_ = container.Terminate(ctx)
	}
	return store, cleanup
}

func TestRedisStore(t *testing.T) {
	store, cleanup := setupRedis(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Get(ctx, 5)
	assert.ErrorIs(t, err, ErrNoSession)

	in := &Session{
		UserID:   5,
		Stage:    StageEarnAwaitingAnswer,
		Question: &quiz.Question{CategoryID: "math", Prompt: "3 + 4 = ?", Answer: "7", Source: quiz.SourceLocal},
		Reward:   21,
	}
	require.NoError(t, store.Save(ctx, in))

	got, err := store.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, StageEarnAwaitingAnswer, got.Stage)
	require.NotNil(t, got.Question)
	assert.Equal(t, "7", got.Question.Answer)
	assert.Equal(t, int64(21), got.Reward)

	ttl, err := store.client.TTL(ctx, "test:session:5").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, store.Delete(ctx, 5))
	_, err = store.Get(ctx, 5)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	store, cleanup := setupRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.client.Set(ctx, "test:session:9", "{not json", redis.KeepTTL).Err())

	_, err := store.Get(ctx, 9)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}
