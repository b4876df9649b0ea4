package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/saveli/pkg/errors"
)

// GetHomeDirectory returns the user's home directory.
// It first tries os.UserHomeDir(), then falls back to the HOME environment variable.
func GetHomeDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err == nil && homeDir != "" {
		return homeDir, nil
	}

	homeDir = os.Getenv(EnvHome)
	if homeDir != "" {
		return homeDir, nil
	}

	return "", errors.New(errors.ErrIO, "unable to determine home directory: neither os.UserHomeDir() nor HOME environment variable are available")
}

// ExpandHome expands a leading ~ to the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	homeDir, err := GetHomeDirectory()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return expandHomeWith(path, homeDir), nil
}

// expandHome is ExpandHome that leaves the path untouched on failure
func expandHome(path string) string {
	expanded, err := ExpandHome(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandHomeWith(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(home, path[2:])
	}
	return path
}

// MakeAbsolute expands ~ and resolves path against the working directory
func MakeAbsolute(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New(errors.ErrInvalidInput, "path must not be empty")
	}
	expanded, err := ExpandHome(path)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInvalidInput, "cannot expand path")
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrIO, "cannot make %s absolute", path)
	}
	return abs, nil
}
