package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

type Config struct {
	AppName                       string `koanf:"app_name"`
	Port                          int    `koanf:"port"`
	LogLevel                      string `koanf:"log_level"`
	PrettyLogs                    bool   `koanf:"pretty_logs"`
	HttpServerWriteTimeoutSeconds int    `koanf:"http_server_write_timeout_seconds"`
	HttpServerReadTimeoutSeconds  int    `koanf:"http_server_read_timeout_seconds"`
	HttpServerIdleTimeoutSeconds  int    `koanf:"http_server_idle_timeout_seconds"`
	MaxHeaderBytes                int    `koanf:"http_server_max_header_bytes"`
	ReadHeaderTimeoutSeconds      int    `koanf:"http_server_read_header_timeout_seconds"`
	// Comma-separated list of allowed CORS origins
	AllowOrigins       string `koanf:"http_server_allow_origins"`
	StartupMaxAttempts int    `koanf:"startup_max_attempts"`

	// Service principal client ID
	PowerBIClientID string `koanf:"powerbi_client_id"`
	// Service principal client secret
	PowerBIClientSecret string `koanf:"powerbi_client_secret"`
	// Azure AD authority host, e.g. https://login.microsoftonline.com/
	PowerBIAuthorityURL string `koanf:"powerbi_authority_url"`
	// Azure AD tenant
	PowerBITenantID string `koanf:"powerbi_tenant_id"`
	// Scope requested for the access token
	PowerBIScope string `koanf:"powerbi_scope"`
	PowerBIWorkspaceID string `koanf:"powerbi_workspace_id"`
	PowerBIReportID    string `koanf:"powerbi_report_id"`
	// Power BI REST base, without trailing slash
	PowerBIAPIURL string `koanf:"powerbi_api_url"`
	// Embed token lifetime
	PowerBITokenLifetimeMinutes int `koanf:"powerbi_token_lifetime_minutes"`

	// Auth Enabled - when true, session command routes require an OIDC bearer token
	AuthEnabled bool `koanf:"auth_enabled"`
	// Auth Issuer URL
	AuthIssuerURL string `koanf:"auth_issuer_url"`
	// Auth Client ID
	AuthClientID string `koanf:"auth_client_id"`

	// Redis caches Azure AD access tokens
	RedisEnabled  bool   `koanf:"redis_enabled"`
	RedisHost     string `koanf:"redis_host"`
	RedisPort     int    `koanf:"redis_port"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Kafka receives report mutation audit events
	KafkaEnabled bool `koanf:"kafka_enabled"`
	// Kafka brokers (comma-separated)
	KafkaBrokers    string `koanf:"kafka_brokers"`
	KafkaAuditTopic string `koanf:"kafka_audit_topic"`

	// Browser bridge settings
	// Interval between vendor library readiness checks
	BridgeReadyInterval time.Duration `koanf:"bridge_ready_interval"`
	// Readiness checks before the embed fails
	BridgeReadyAttempts int `koanf:"bridge_ready_attempts"`
	// Timeout for a single call relayed to the host page
	BridgeCallTimeout time.Duration `koanf:"bridge_call_timeout"`

	// Directory holding form schema YAML files
	FormsDir string `koanf:"forms_dir"`

	// Tracing settings
	// Enable OTLP tracing export
	OTLPEnabled bool `koanf:"otlp_enabled"`
	// OTLP collector endpoint
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	// OTLP protocol (grpc or http)
	OTLPProtocol string `koanf:"otlp_protocol"`
	// Disable TLS for OTLP (for local development)
	OTLPInsecure bool `koanf:"otlp_insecure"`
}

// Defaults returns the default configuration values keyed by koanf path
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"app_name":                                "fern-api",
		"port":                                    3000,
		"log_level":                               "info",
		"pretty_logs":                             false,
		"http_server_write_timeout_seconds":       30,
		"http_server_read_timeout_seconds":        10,
		"http_server_idle_timeout_seconds":        60,
		"http_server_max_header_bytes":            64000,
		"http_server_read_header_timeout_seconds": 10,
		"http_server_allow_origins":               "*",
		"startup_max_attempts":                    5,
		"powerbi_client_id":                       "",
		"powerbi_client_secret":                   "",
		"powerbi_authority_url":                   "https://login.microsoftonline.com/",
		"powerbi_tenant_id":                       "",
		"powerbi_scope":                           "https://analysis.windows.net/powerbi/api/.default",
		"powerbi_workspace_id":                    "",
		"powerbi_report_id":                       "",
		"powerbi_api_url":                         "https://api.powerbi.com/v1.0/myorg",
		"powerbi_token_lifetime_minutes":          60,
		"auth_enabled":                            false,
		"auth_issuer_url":                         "",
		"auth_client_id":                          "",
		"redis_enabled":                           false,
		"redis_host":                              "localhost",
		"redis_port":                              6379,
		"redis_password":                          "",
		"redis_db":                                0,
		"kafka_enabled":                           false,
		"kafka_brokers":                           "localhost:9092",
		"kafka_audit_topic":                       "powerbi-report-events",
		"bridge_ready_interval":                   "100ms",
		"bridge_ready_attempts":                   50,
		"bridge_call_timeout":                     "30s",
		"forms_dir":                               "config/forms",
		"otlp_enabled":                            false,
		"otlp_endpoint":                           "localhost:4317",
		"otlp_protocol":                           "grpc",
		"otlp_insecure":                           true,
	}
}

// Load builds the configuration from defaults, an optional YAML file, the
// environment (a .env file is read first when present) and explicitly set flags.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	defaults := Defaults()
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// PORT -> port, POWERBI_CLIENT_ID -> powerbi_client_id. Unknown variables are skipped.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := defaults[key]; !ok {
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, ok := defaults[key]; !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}

// Origins returns the configured CORS origins
func (c *Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// PowerBIConfigured reports whether the workspace and report to embed are set
func (c *Config) PowerBIConfigured() bool {
	return c.PowerBIWorkspaceID != "" && c.PowerBIReportID != ""
}

// KafkaBrokerList splits the comma-separated broker string
func (c *Config) KafkaBrokerList() []string {
	brokers := strings.Split(c.KafkaBrokers, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	return brokers
}
