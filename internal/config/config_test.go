package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "50051", cfg.GRPCPort)
	assert.Equal(t, "./nutricoach.db", cfg.DBPath)
	assert.Equal(t, int64(1), cfg.DemoUserID)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Equal(t, []string{"*"}, cfg.Origins())
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 15*time.Minute, cfg.CatalogTTL)
	assert.Equal(t, "orders.created", cfg.OrdersTopic)
	assert.Empty(t, cfg.Brokers())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("CORS_ORIGINS", "http://localhost:8081,http://localhost:19006")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers())
	assert.Equal(t, []string{"http://localhost:8081", "http://localhost:19006"}, cfg.Origins())
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NUTRI_TEST_KEY=abc\nGEMINI_MODEL=gemini-test\n"), 0o600))
	t.Setenv("GEMINI_MODEL", "")
	os.Unsetenv("GEMINI_MODEL")
	t.Cleanup(func() { os.Unsetenv("NUTRI_TEST_KEY") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-test", cfg.GeminiModel)
	assert.Equal(t, "abc", os.Getenv("NUTRI_TEST_KEY"))
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("DEMO_USER_ID", "0")

	_, err := Load(missingEnvFile(t))
	assert.ErrorContains(t, err, "DEMO_USER_ID")
}
