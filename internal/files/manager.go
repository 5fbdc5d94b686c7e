package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"studycoach/internal/config"
)

// DocumentInfo describes one generated document on disk.
type DocumentInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Manager provides file operations over the upload and report
// directories.
type Manager struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewManager creates a file manager bound to the application paths.
func NewManager(paths *config.Paths, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{paths: paths, logger: logger}
}

// SaveUpload streams an uploaded workbook to the given path, creating
// parent directories as needed. Returns the number of bytes written.
func (m *Manager) SaveUpload(path string, src io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return n, fmt.Errorf("failed to sync upload: %w", err)
	}

	m.logger.Debug("upload saved",
		slog.String("path", path),
		slog.Int64("size_bytes", n))
	return n, nil
}

// RemoveUpload deletes an uploaded workbook. Missing files are not an
// error.
func (m *Manager) RemoveUpload(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ListDocuments returns the regular files in a batch output directory,
// sorted by name. A missing directory yields an empty list.
func (m *Manager) ListDocuments(dir string) ([]DocumentInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []DocumentInfo{}, nil
		}
		return nil, err
	}

	docs := make([]DocumentInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		docs = append(docs, DocumentInfo{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

// CleanupUploads removes uploaded workbooks older than the given age.
// Batches keep their upload only while they might still need it, so a
// periodic sweep reclaims the space. Returns the number of files
// removed.
func (m *Manager) CleanupUploads(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(m.paths.UploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.paths.UploadsDir, entry.Name())
		if err := os.Remove(path); err != nil {
			m.logger.Warn("failed to remove stale upload",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		removed++
	}

	if removed > 0 {
		m.logger.Info("stale uploads removed", slog.Int("count", removed))
	}
	return removed, nil
}
