package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"agora/contexts/association-governance/governance-engine/domain/entities"
	"agora/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		ServiceName:         "agora-test",
		HTTPPort:            "0",
		SQLitePath:          filepath.Join(t.TempDir(), "agora.db"),
		IdempotencyTTL:      time.Hour,
		SweepInterval:       time.Second,
		RelayInterval:       time.Second,
		OutboxBatchSize:     10,
		EnableRoundSweeper:  true,
		EnableAuditConsumer: true,
	}
}

func TestBuildWorkerRequiresDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.SQLitePath = ""
	_, err := BuildWorker(cfg, nil)
	assert.Error(t, err)
}

func TestWorkerRunOnceRegistersServiceAccounts(t *testing.T) {
	app, err := BuildWorker(testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ctx := context.Background()
	require.NoError(t, app.RunOnce(ctx))
	require.NoError(t, app.RunOnce(ctx))

	for _, name := range entities.SystemServiceAccounts {
		ok, err := app.accounts.registry.IsServiceAccount(ctx, name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	app, err := BuildWorker(testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestBuildAPIEmbedsWorkersForMemoryStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.SQLitePath = ""
	app, err := BuildAPI(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	assert.NotNil(t, app.embedded)
	assert.Nil(t, app.database)
}

func TestMigrateSQLite(t *testing.T) {
	require.NoError(t, Migrate(context.Background(), testConfig(t), nil))
}

func TestNormalizeAddr(t *testing.T) {
	assert.Equal(t, ":8080", normalizeAddr(""))
	assert.Equal(t, ":9090", normalizeAddr("9090"))
	assert.Equal(t, ":7070", normalizeAddr(":7070"))
}
