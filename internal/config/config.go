// Package config provides configuration loading and defaults for the migas client.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is the public migas GraphQL endpoint.
const DefaultEndpoint = "https://migas.herokuapp.com/graphql"

// ProjectFilter holds allowlist and denylist glob patterns for project names.
type ProjectFilter struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path" validate:"required_if=Enabled true"`
}

// ServerConfig holds network and authentication settings for serve mode.
type ServerConfig struct {
	Port      int    `yaml:"port" validate:"gte=0,lte=65535"`
	AuthToken string `yaml:"auth_token"`
}

// Config is the top-level configuration structure for the migas client.
type Config struct {
	Endpoint string `yaml:"endpoint" validate:"required,url"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout int `yaml:"timeout" validate:"gte=0"`
	// Telemetry gates every operation; when false nothing is sent.
	Telemetry bool   `yaml:"telemetry"`
	UserID    string `yaml:"user_id"`
	StateFile string `yaml:"state_file"`
	LogLevel  string `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	Server   ServerConfig  `yaml:"server"`
	Audit    AuditConfig   `yaml:"audit"`
	Projects ProjectFilter `yaml:"projects"`
}

var validate = validator.New()

// LoadConfig reads and parses a YAML configuration file from the given path.
// Fields missing from the file keep their DefaultConfig values.
// On error, nil is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:  DefaultEndpoint,
		Timeout:   3,
		Telemetry: true,
		LogLevel:  "info",
		Server: ServerConfig{
			Port: 8080,
		},
		Audit: AuditConfig{
			LogPath: "migas-audit.log",
		},
	}
}

// Validate checks cfg against its field constraints and returns a single
// error listing every failing field.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - MIGAS_ENDPOINT overrides cfg.Endpoint
//   - MIGAS_TIMEOUT overrides cfg.Timeout (ignored unless an integer)
//   - MIGAS_OPTOUT set to any non-empty value disables telemetry
//   - MIGAS_USER_ID overrides cfg.UserID
//   - MIGAS_LOG_LEVEL overrides cfg.LogLevel
//   - MIGAS_AUTH_TOKEN overrides cfg.Server.AuthToken
func ApplyEnvOverrides(cfg *Config) {
	if endpoint := os.Getenv("MIGAS_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if raw := os.Getenv("MIGAS_TIMEOUT"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil {
			cfg.Timeout = secs
		}
	}
	if os.Getenv("MIGAS_OPTOUT") != "" {
		cfg.Telemetry = false
	}
	if id := os.Getenv("MIGAS_USER_ID"); id != "" {
		cfg.UserID = id
	}
	if level := os.Getenv("MIGAS_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if token := os.Getenv("MIGAS_AUTH_TOKEN"); token != "" {
		cfg.Server.AuthToken = token
	}
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
