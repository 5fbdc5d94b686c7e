// Package validation provides file and upload validation shared by the
// HTTP layer and the command-line processor.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileValidator provides common file validation functions
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbookFile checks that a file on disk is a usable .xlsx
// workbook: present, readable, the right extension, not an Office temp
// file, and within the size cap when maxBytes is positive.
func (v *FileValidator) ValidateWorkbookFile(path string, maxBytes int64) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if err := v.ValidateWorkbookName(filepath.Base(path)); err != nil {
		return err
	}

	if maxBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat file %s: %w", path, err)
		}
		if info.Size() > maxBytes {
			v.logger.Error("Workbook exceeds size cap",
				slog.String("file", path),
				slog.Int64("size", info.Size()),
				slog.Int64("max_bytes", maxBytes))
			return fmt.Errorf("workbook %s exceeds the %d byte limit", path, maxBytes)
		}
	}

	return nil
}

// ValidateWorkbookName checks an uploaded file name before anything is
// written to disk.
func (v *FileValidator) ValidateWorkbookName(filename string) error {
	base := filepath.Base(filename)

	ext := strings.ToLower(filepath.Ext(base))
	if ext != ".xlsx" {
		v.logger.Error("File is not an Excel workbook",
			slog.String("file", filename),
			slog.String("extension", ext))
		return fmt.Errorf("file %s is not an .xlsx workbook (extension: %s)", filename, ext)
	}

	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Rejecting temporary Excel file",
			slog.String("file", filename))
		return fmt.Errorf("file %s is a temporary Excel file", filename)
	}

	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Info("Output directory validated",
		slog.String("directory", dir))
	return nil
}
