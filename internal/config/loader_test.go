package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 8081
  public_base_url: "https://club.example.org"
database:
  host: "db.internal"
  port: 5432
  user: "clubdues"
  password: "secret"
  db_name: "clubdues"
redis:
  enabled: true
  addr: "redis.internal:6379"
kafka:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  group_id: "clubdues-worker"
minio:
  endpoint: "minio.internal:9000"
  access_key: "key"
  secret_key: "secret"
  bucket: "proofs"
reconciliation:
  decision_lock: true
log:
  level: "debug"
  format: "console"
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "https://club.example.org", cfg.Server.PublicBaseURL)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "proofs", cfg.MinIO.Bucket)
	assert.True(t, cfg.Reconciliation.DecisionLock)
	assert.True(t, cfg.Reconciliation.AtomicDecisions, "atomic decisions default to on")
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load("non_existent_config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "invalid_yaml: ["))
	assert.Error(t, err)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "log:\n  level: verbose\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CLUBDUES_SERVER_PORT", "9999")
	t.Setenv("CLUBDUES_DATABASE_HOST", "db-from-env")

	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "db-from-env", cfg.Database.Host)
}

func TestLoadFromEnv_NoFile(t *testing.T) {
	t.Setenv("CLUBDUES_MINIO_BUCKET", "env-proofs")
	t.Setenv("CLUBDUES_RECONCILIATION_ATOMIC_DECISIONS", "false")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-proofs", cfg.MinIO.Bucket)
	assert.False(t, cfg.Reconciliation.AtomicDecisions)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultUpToDateMessage, cfg.Reconciliation.UpToDateMessage)
}

func TestLoadOrEnv(t *testing.T) {
	cfg, err := LoadOrEnv("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDBName, cfg.Database.DBName)

	cfg, err = LoadOrEnv(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestMustLoad_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoad("missing.yaml") })
}

func TestWatch_InvokesOnChange(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	var mu sync.Mutex
	var level string
	require.NoError(t, Watch(path, func(cfg *Config) {
		mu.Lock()
		level = cfg.Log.Level
		mu.Unlock()
	}, nil))

	updated := strings.Replace(validConfigYAML, `level: "debug"`, `level: "warn"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return level == "warn"
	}, 5*time.Second, 50*time.Millisecond)
}

//Personal.AI order the ending
