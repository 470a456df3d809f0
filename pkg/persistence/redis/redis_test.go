package redis

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/outreach/pkg/models"
	"github.com/dukex/outreach/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) (*Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := NewPersistence(ctx, logger, "redis://"+endpoint+"/0")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = p.Close(context.Background())
	})

	return p, ctx
}

func TestNewPersistence_InvalidURL(t *testing.T) {
	_, err := NewPersistence(context.Background(), slog.Default(), "http://nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid Redis URL")
}

func TestRunRepository_RoundTrip(t *testing.T) {
	p, ctx := setupRedis(t)
	repo := p.RunRepository()

	require.NoError(t, p.HealthCheck(ctx))

	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, repo.Save(ctx, &models.RunRecord{
			ID:        id,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			Stats:     models.Stats{Total: i},
		}))
	}

	loaded, err := repo.GetByID(ctx, "run-b")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Stats.Total)

	runs, err := repo.GetAll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-c", runs[0].ID)
	assert.Equal(t, "run-a", runs[2].ID)

	limited, err := repo.GetAll(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "run-b", limited[1].ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, persistence.IsRunNotFound(err))

	assert.ErrorIs(t, repo.Save(ctx, &models.RunRecord{}), persistence.ErrInvalidRun)
}
