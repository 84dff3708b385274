package config

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"
)

// fakeProbe returns a Probe backed by the given env and files.
func fakeProbe(env map[string]string, files map[string]string) Probe {
	return Probe{
		Getenv: func(k string) string { return env[k] },
		Exists: func(p string) bool {
			_, ok := files[p]
			return ok
		},
		Read: func(p string) ([]byte, error) {
			if c, ok := files[p]; ok {
				return []byte(c), nil
			}
			return nil, errors.New("not found")
		},
	}
}

func Test_DetectContainer_Cases(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		files map[string]string
		want  string
	}{
		{name: "bare host", want: "unknown"},
		{name: "dockerenv marker", files: map[string]string{"/.dockerenv": ""}, want: "docker"},
		{name: "docker cgroup", files: map[string]string{"/proc/1/cgroup": "12:pids:/docker/abc"}, want: "docker"},
		{name: "plain cgroup", files: map[string]string{"/proc/1/cgroup": "0::/init.scope"}, want: "unknown"},
		{name: "apptainer env", env: map[string]string{"APPTAINER_NAME": "img.sif"}, want: "apptainer"},
		{name: "singularity env", env: map[string]string{"SINGULARITY_NAME": "img.sif"}, want: "apptainer"},
		{name: "singularity dir", files: map[string]string{"/.singularity.d": ""}, want: "apptainer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectContainer(fakeProbe(tt.env, tt.files)); got != tt.want {
				t.Errorf("DetectContainer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_IsCI_Cases(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{name: "no ci vars", want: false},
		{name: "CI=true", env: map[string]string{"CI": "true"}, want: true},
		{name: "GITHUB_ACTIONS", env: map[string]string{"GITHUB_ACTIONS": "true"}, want: true},
		{name: "BUILD_NUMBER", env: map[string]string{"BUILD_NUMBER": "42"}, want: true},
		{name: "CI=false", env: map[string]string{"CI": "false"}, want: false},
		{name: "CI=0", env: map[string]string{"CI": "0"}, want: false},
		{name: "unrelated var", env: map[string]string{"HOME": "/root"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCI(fakeProbe(tt.env, nil)); got != tt.want {
				t.Errorf("IsCI() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_Detect_Fields(t *testing.T) {
	cfg := &Config{UserID: "u", StateFile: filepath.Join(t.TempDir(), "state.yaml")}
	fp := Detect(cfg, fakeProbe(map[string]string{"CI": "1"}, map[string]string{"/.dockerenv": ""}))

	want := map[string]any{
		"language":   "go",
		"platform":   runtime.GOOS,
		"container":  "docker",
		"is_ci":      true,
		"user_id":    "u",
		"session_id": SessionID(),
	}
	for k, v := range want {
		if fp[k] != v {
			t.Errorf("fp[%q] = %v, want %v", k, fp[k], v)
		}
	}
	if v, _ := fp["language_version"].(string); v == "" {
		t.Error("language_version is empty")
	}
}

func Test_Preview_OmitsUnknownUserID(t *testing.T) {
	cfg := &Config{StateFile: filepath.Join(t.TempDir(), "state.yaml")}
	fp := Preview(cfg, fakeProbe(nil, nil))

	if _, ok := fp["user_id"]; ok {
		t.Errorf("user_id = %v, want it absent", fp["user_id"])
	}
	if fp["container"] != "unknown" || fp["session_id"] != SessionID() {
		t.Errorf("fp = %v", fp)
	}
}

func Test_SessionID_Stable(t *testing.T) {
	if SessionID() == "" || SessionID() != SessionID() {
		t.Error("SessionID() should be non-empty and stable")
	}
}
