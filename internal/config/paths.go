package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Paths contains all the application paths.
// This is the single source of truth for file locations; everything is
// resolved relative to the executable directory, never the working
// directory, so the binaries behave the same wherever they are launched
// from.
type Paths struct {
	ExecutableDir string
	DataDir       string
	UploadsDir    string
	ReportsDir    string
	LogsDir       string
}

var (
	cachedPaths *Paths
	pathsOnce   sync.Once
	pathsErr    error
)

// GetPaths returns the application paths relative to the executable
// location. The result is computed once and cached.
func GetPaths() (*Paths, error) {
	pathsOnce.Do(func() {
		cachedPaths, pathsErr = resolvePaths()
	})
	return cachedPaths, pathsErr
}

func resolvePaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	exeDir := filepath.Dir(exe)
	dataDir := filepath.Join(exeDir, DefaultDataDir)

	return &Paths{
		ExecutableDir: exeDir,
		DataDir:       dataDir,
		UploadsDir:    filepath.Join(dataDir, "uploads"),
		ReportsDir:    filepath.Join(dataDir, "reports"),
		LogsDir:       filepath.Join(exeDir, DefaultLogsDir),
	}, nil
}

// EnsureDirectories creates every directory the application writes into.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.DataDir, p.UploadsDir, p.ReportsDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetUploadPath returns the full path for an uploaded workbook file.
func (p *Paths) GetUploadPath(filename string) string {
	return filepath.Join(p.UploadsDir, filename)
}

// GetReportPath returns the full path for a generated report file.
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the full path for a log file.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// ResetPathsForTesting clears the cached paths. Tests only.
func ResetPathsForTesting() {
	cachedPaths = nil
	pathsErr = nil
	pathsOnce = sync.Once{}
}
