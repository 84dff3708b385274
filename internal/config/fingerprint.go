package config

import (
	"os"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

// ciVars are environment variables set by common CI providers.
var ciVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"BUILD_NUMBER",
	"RUN_ID",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"TRAVIS",
	"JENKINS_URL",
	"BUILDKITE",
	"TF_BUILD",
}

// Probe abstracts the process environment so detection can be tested.
type Probe struct {
	Getenv func(string) string
	Exists func(string) bool
	Read   func(string) ([]byte, error)
}

// SystemProbe inspects the real process environment and filesystem.
func SystemProbe() Probe {
	return Probe{
		Getenv: os.Getenv,
		Exists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
		Read: os.ReadFile,
	}
}

// sessionID identifies this process for its lifetime.
var sessionID = uuid.NewString()

// SessionID returns the id shared by every request from this process.
func SessionID() string {
	return sessionID
}

// Fingerprint is the auto-detected context sent with fingerprinted
// operations. Its keys match the operation parameter names.
type Fingerprint map[string]any

// Detect gathers language, platform, container and CI context plus the user
// and session ids.
func Detect(cfg *Config, p Probe) Fingerprint {
	return detect(p, EnsureUserID(cfg))
}

// Preview is Detect for a client that must not leave state behind: the
// user id is only read, never generated or saved, and is left out when
// none is known yet.
func Preview(cfg *Config, p Probe) Fingerprint {
	return detect(p, KnownUserID(cfg))
}

func detect(p Probe, userID string) Fingerprint {
	fp := Fingerprint{
		"language":         "go",
		"language_version": strings.TrimPrefix(runtime.Version(), "go"),
		"platform":         runtime.GOOS,
		"container":        DetectContainer(p),
		"is_ci":            IsCI(p),
		"session_id":       SessionID(),
	}
	if userID != "" {
		fp["user_id"] = userID
	}
	return fp
}

// DetectContainer reports "docker", "apptainer" or "unknown".
func DetectContainer(p Probe) string {
	if p.Getenv("APPTAINER_NAME") != "" || p.Getenv("SINGULARITY_NAME") != "" || p.Exists("/.singularity.d") {
		return "apptainer"
	}
	if p.Exists("/.dockerenv") {
		return "docker"
	}
	if data, err := p.Read("/proc/1/cgroup"); err == nil && strings.Contains(string(data), "docker") {
		return "docker"
	}
	return "unknown"
}

// IsCI reports whether any known CI variable is set to a truthy value.
func IsCI(p Probe) bool {
	for _, name := range ciVars {
		switch strings.ToLower(strings.TrimSpace(p.Getenv(name))) {
		case "", "0", "false", "no":
			continue
		default:
			return true
		}
	}
	return false
}
