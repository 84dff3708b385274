package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jamesprial/migas-go/internal/logging"
)

// State is what the client remembers between runs.
type State struct {
	UserID string `yaml:"user_id"`
}

// StatePath returns cfg.StateFile, or <user cache dir>/migas/state.yaml when
// it is unset. When no cache dir is available the OS temp dir is used.
func StatePath(cfg *Config) string {
	if cfg.StateFile != "" {
		return cfg.StateFile
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "migas", "state.yaml")
}

// LoadState reads the state file at path. A missing file yields an empty
// State and no error.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &st, nil
}

// SaveState writes st to path, creating parent directories as needed.
func SaveState(path string, st *State) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// EnsureUserID returns the user id to report. A configured id wins, then a
// previously persisted one; otherwise a new random id is generated, stored
// on cfg and persisted. Persistence problems are logged and never fatal.
func EnsureUserID(cfg *Config) string {
	if cfg.UserID != "" {
		return cfg.UserID
	}

	log := logging.Logger()
	path := StatePath(cfg)
	st, err := LoadState(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("ignoring unreadable state file")
		st = &State{}
	}

	if st.UserID == "" {
		st.UserID = uuid.NewString()
		if err := SaveState(path, st); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("could not persist user id")
		}
	}

	cfg.UserID = st.UserID
	return st.UserID
}

// KnownUserID returns the configured or persisted user id without ever
// generating or writing one. It returns "" when neither exists.
func KnownUserID(cfg *Config) string {
	if cfg.UserID != "" {
		return cfg.UserID
	}
	path := StatePath(cfg)
	st, err := LoadState(path)
	if err != nil {
		logging.Logger().Warn().Err(err).Str("path", path).Msg("ignoring unreadable state file")
		return ""
	}
	return st.UserID
}
