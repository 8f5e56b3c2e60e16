package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/ClubDues/internal/config"
)

func validConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestApplyDefaults_ProducesValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, config.DefaultAllowedContentTypes, cfg.MinIO.AllowedContentTypes)
	assert.Equal(t, int64(config.DefaultMaxProofBytes), cfg.MinIO.MaxProofBytes)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Port = 9000
	cfg.Reconciliation.UpToDateMessage = "All paid."
	config.ApplyDefaults(cfg)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "All paid.", cfg.Reconciliation.UpToDateMessage)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { config.ApplyDefaults(nil) })
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		errSub string
	}{
		{"server port", func(c *config.Config) { c.Server.Port = 70000 }, "server.port"},
		{"relative base url", func(c *config.Config) { c.Server.PublicBaseURL = "/pay" }, "public_base_url"},
		{"driver", func(c *config.Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"database host", func(c *config.Config) { c.Database.Host = "" }, "database.host"},
		{"database user", func(c *config.Config) { c.Database.User = "" }, "database.user"},
		{"max conns", func(c *config.Config) { c.Database.MaxConns = 0 }, "max_conns"},
		{"kafka brokers", func(c *config.Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"minio bucket", func(c *config.Config) { c.MinIO.Bucket = "" }, "minio.bucket"},
		{"proof size", func(c *config.Config) { c.MinIO.MaxProofBytes = -1 }, "max_proof_bytes"},
		{"lock without redis", func(c *config.Config) { c.Reconciliation.DecisionLock = true }, "decision_lock"},
		{"empty up-to-date message", func(c *config.Config) { c.Reconciliation.UpToDateMessage = "  " }, "up_to_date_message"},
		{"sweep batch", func(c *config.Config) { c.Worker.SweepBatchSize = 0 }, "sweep_batch_size"},
		{"log format", func(c *config.Config) { c.Log.Format = "text" }, "log.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tc.errSub)
			}
		})
	}
}

func TestConfig_Validate_LockWithRedis(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Enabled = true
	cfg.Reconciliation.DecisionLock = true
	assert.NoError(t, cfg.Validate())
}

//Personal.AI order the ending
