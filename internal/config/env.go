package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

var envFiles = []string{".env.local", ".env"}

// LoadEnvFiles loads the first .env file found in dir, then the working
// directory, then the executable's directory. Variables already set in the
// environment are not overwritten. It returns the loaded path, or "" when
// none was found.
func LoadEnvFiles(dir string) string {
	var dirs []string
	if dir != "" {
		dirs = append(dirs, dir)
	}
	dirs = append(dirs, ".")
	if exe, err := os.Executable(); err == nil {
		if real, err := filepath.EvalSymlinks(exe); err == nil {
			exe = real
		}
		dirs = append(dirs, filepath.Dir(exe))
	}

	for _, d := range dirs {
		for _, name := range envFiles {
			p := filepath.Join(d, name)
			if err := godotenv.Load(p); err == nil {
				return p
			}
		}
	}
	return ""
}
