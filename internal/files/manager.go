package files

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Manager owns an output directory and writes files into it atomically
type Manager struct {
	baseDir string
	logger  *slog.Logger
}

// NewManager creates a new file manager rooted at baseDir
func NewManager(baseDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{baseDir: baseDir, logger: logger}
}

// BaseDir returns the directory the manager writes into
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Path resolves name against the base directory
func (m *Manager) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.baseDir, name)
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(name string) bool {
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// EnsureDirectory creates the base directory if it doesn't exist
func (m *Manager) EnsureDirectory() error {
	if err := os.MkdirAll(m.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", m.baseDir, err)
	}
	return nil
}

// WriteFile streams fill into a temporary file next to name and renames it
// into place once fill succeeds. A failed fill leaves no partial output.
func (m *Manager) WriteFile(name string, fill func(w io.Writer) error) (string, error) {
	if err := m.EnsureDirectory(); err != nil {
		return "", err
	}

	fullPath := m.Path(name)
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), "."+filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", fullPath, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	buf := bufio.NewWriter(tmp)
	if err := fill(buf); err != nil {
		tmp.Close()
		return "", err
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to flush %s: %w", fullPath, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", fullPath, err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", fullPath, err)
	}

	if info, err := os.Stat(fullPath); err == nil {
		m.logger.Info("Wrote output file",
			slog.String("path", fullPath),
			slog.Int64("size_bytes", info.Size()))
	}
	return fullPath, nil
}

// ListFiles returns the names of all files in the base directory
func (m *Manager) ListFiles() ([]string, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
