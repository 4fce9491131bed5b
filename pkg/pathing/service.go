package pathing

import (
	"fmt"
	"os"
	"path/filepath"
)

func GetConfigDir() string {
	return "/etc/conso_prod_reconciler"
}

func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "reconciler.toml")
}

// Resolve joins a relative artifact path onto base. Absolute paths are kept.
func Resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// EnsureDirs creates every directory that does not exist yet.
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
	}
	return nil
}

// EnsureParentDirs creates the parent directory of every file path.
func EnsureParentDirs(files ...string) error {
	dirs := make([]string, 0, len(files))
	for _, f := range files {
		if f != "" {
			dirs = append(dirs, filepath.Dir(f))
		}
	}
	return EnsureDirs(dirs...)
}
