package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AGORA_HTTP_PORT", "9090")
	t.Setenv("AGORA_KAFKA_BROKERS", "broker-a:9092, broker-b:9092")
	t.Setenv("AGORA_SWEEP_INTERVAL", "1m")
	t.Setenv("AGORA_AUTO_RESOLVE_ROUNDS", "true")
	t.Setenv("AGORA_SQLITE_PATH", filepath.Join(t.TempDir(), "agora.db"))

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "agora", cfg.ServiceName)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.True(t, cfg.AutoResolveRounds)
	assert.True(t, cfg.EnableRoundSweeper)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver())
}

func TestLoadFromDotEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("AGORA_SERVICE_NAME=agora-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("AGORA_SERVICE_NAME") })

	cfg, err := LoadFrom(envFile)
	require.NoError(t, err)
	assert.Equal(t, "agora-dotenv", cfg.ServiceName)
	assert.Equal(t, "memory", cfg.DatabaseDriver())
}

func TestParsePoliciesOverlaysOverrides(t *testing.T) {
	set, err := ParsePolicies([]byte(`
default:
  election_quorum: 0.4
  report_window: 72h
associations:
  assoc-strict:
    suspension_threshold: 2
    expulsion_threshold: 4
`))
	require.NoError(t, err)

	base, err := set.PolicyFor(context.Background(), "assoc-other")
	require.NoError(t, err)
	assert.Equal(t, 0.4, base.ElectionQuorum)
	assert.Equal(t, 72*time.Hour, base.ReportWindow)
	assert.Equal(t, 3, base.SuspensionThreshold)

	strict, err := set.PolicyFor(context.Background(), "assoc-strict")
	require.NoError(t, err)
	assert.Equal(t, 0.4, strict.ElectionQuorum)
	assert.Equal(t, 2, strict.SuspensionThreshold)
	assert.Equal(t, 4, strict.ExpulsionThreshold)
	assert.Equal(t, 0.3, strict.MotionQuorum)
}

func TestParsePoliciesRejectsInvalidThresholds(t *testing.T) {
	_, err := ParsePolicies([]byte("default:\n  motion_majority: 1.5\n"))
	assert.Error(t, err)
	_, err = ParsePolicies([]byte("associations:\n  a:\n    expulsion_threshold: 2\n"))
	assert.Error(t, err)
}

func TestLoadPoliciesWithoutFileUsesDefaults(t *testing.T) {
	set, err := LoadPolicies("")
	require.NoError(t, err)
	assert.Equal(t, 0.5, set.Default.ElectionQuorum)
	assert.Empty(t, set.Overrides)
}
