// Package dotdir resolves the .advisor/ directory that holds config.toml and
// exported reports.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the advisor directory.
	dirName = ".advisor"

	// reportsDirName is the default export location inside the advisor
	// directory.
	reportsDirName = "reports"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path to a .advisor/ directory, creating it if
// needed. Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.advisor/ dir
//  3. Home ~/.advisor/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating advisor directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// ReportsDir returns the default report export directory inside the
// resolved .advisor/ directory. The directory itself is created on first
// export.
func (m *Manager) ReportsDir(overrideDir string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(target, reportsDirName), nil
}

// localDirExists checks whether a .advisor/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
