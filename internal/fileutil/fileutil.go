package fileutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var filenameReplacer = strings.NewReplacer(
	":", " -",
	"/", "-",
	"\\", "-",
)

// SanitizeFilename rewrites characters that break paths on common
// filesystems.
func SanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}

// GetMarkdownFilePath builds the note path for a record name inside
// directory.
func GetMarkdownFilePath(name string, directory string) string {
	return filepath.Join(directory, SanitizeFilename(name)+".md")
}

// FileExists reports whether path points at an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// WriteFileWithOverwrite writes data to path, creating parent directories
// as needed. An existing file is left alone unless overwrite is set; the
// returned bool tells whether anything was written.
func WriteFileWithOverwrite(path string, data []byte, perm os.FileMode, overwrite bool) (bool, error) {
	if FileExists(path) && !overwrite {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return false, err
	}

	return true, nil
}

// WriteJSONFile marshals data with indentation and writes it to path
// under the same overwrite rules as WriteFileWithOverwrite.
func WriteJSONFile(data interface{}, path string, overwrite bool) (bool, error) {
	if FileExists(path) && !overwrite {
		slog.Info("JSON file already exists, skipping", "filename", path, "overwrite", overwrite)
		return false, nil
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	slog.Info("Writing JSON file", "filename", path, "overwrite", overwrite)
	written, err := WriteFileWithOverwrite(path, encoded, 0644, overwrite)
	if err != nil {
		return false, fmt.Errorf("failed to write JSON file: %w", err)
	}

	return written, nil
}
