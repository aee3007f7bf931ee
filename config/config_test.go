package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "fern-api", cfg.AppName)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "https://api.powerbi.com/v1.0/myorg", cfg.PowerBIAPIURL)
	assert.Equal(t, 60, cfg.PowerBITokenLifetimeMinutes)
	assert.Equal(t, 100*time.Millisecond, cfg.BridgeReadyInterval)
	assert.Equal(t, 50, cfg.BridgeReadyAttempts)
	assert.Equal(t, 30*time.Second, cfg.BridgeCallTimeout)
	assert.Equal(t, "powerbi-report-events", cfg.KafkaAuditTopic)
	assert.False(t, cfg.RedisEnabled)
	assert.False(t, cfg.PowerBIConfigured())
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fern.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 4000
log_level: debug
powerbi_workspace_id: WS-FILE
powerbi_report_id: R-FILE
bridge_call_timeout: 5s
`), 0o600))

	t.Setenv("POWERBI_REPORT_ID", "R-ENV")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--port", "5000"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port, "flags win")
	assert.Equal(t, "debug", cfg.LogLevel, "unset flags do not override")
	assert.Equal(t, "WS-FILE", cfg.PowerBIWorkspaceID)
	assert.Equal(t, "R-ENV", cfg.PowerBIReportID, "env overrides the file")
	assert.Equal(t, 5*time.Second, cfg.BridgeCallTimeout)
	assert.True(t, cfg.PowerBIConfigured())
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokerList())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorContains(t, err, "error reading config file")
}

func TestOrigins(t *testing.T) {
	cfg := &Config{AllowOrigins: " https://a.example.com ,,https://b.example.com"}
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Origins())

	cfg.AllowOrigins = ""
	assert.Empty(t, cfg.Origins())
}
