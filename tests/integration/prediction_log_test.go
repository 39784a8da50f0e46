//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fraudguard/fraudguard/internal/config"
	"github.com/fraudguard/fraudguard/internal/domain/models"
	"github.com/fraudguard/fraudguard/internal/infrastructure/persistence/postgres"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

func TestPredictionRepositoryAgainstPostgres(t *testing.T) {
	if os.Getenv("SKIP_DOCKER_TESTS") == "true" {
		t.Skip("Skipping Docker-dependent tests")
	}

	ctx := context.Background()

	container, err := pgcontainer.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		pgcontainer.WithDatabase("fraudguard"),
		pgcontainer.WithUsername("fraudguard"),
		pgcontainer.WithPassword("fraudguard"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, container.Terminate(ctx))
	}()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := &config.DatabaseConfig{
		Enabled:         true,
		Host:            host,
		Port:            port.Int(),
		User:            "fraudguard",
		Password:        "fraudguard",
		Database:        "fraudguard",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
	}

	log := logger.NewNoop()
	db, err := postgres.NewDatabase(ctx, cfg, log)
	require.NoError(t, err)
	repo := postgres.NewPredictionRepository(db, log)

	now := time.Now().UTC()
	save := func(tier string, fraud bool, location string, age time.Duration) {
		require.NoError(t, repo.Save(ctx, &models.PredictionRecord{
			ID:         "TXN-" + uuid.NewString(),
			UserID:     "user-1",
			Merchant:   "corner store",
			Location:   location,
			Amount:     25,
			FraudScore: 0.2,
			RiskTier:   tier,
			IsFraud:    fraud,
			Confidence: 0.8,
			CreatedAt:  now.Add(-age),
		}))
	}

	save("low", false, "new york", time.Hour)
	save("low", false, "new york", 2*time.Hour)
	save("high", true, "lagos", 3*time.Hour)
	save("high", true, "lagos", 48*time.Hour) // outside the window

	total, fraud, err := repo.CountSince(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(1), fraud)

	byLocation, err := repo.TierCountsByLocation(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), byLocation["new york"]["low"])
	assert.Equal(t, int64(1), byLocation["lagos"]["high"])
	_, present := byLocation["lagos"]["low"]
	assert.False(t, present)
}
