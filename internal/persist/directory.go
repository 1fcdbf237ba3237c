package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirectoryHandle is a capability to write files into a folder the user
// granted. Handles are only ever held in memory.
type DirectoryHandle interface {
	// Name is a short label for display.
	Name() string
	// Path is the absolute folder path.
	Path() string
	// WriteFile creates or truncates name inside the folder.
	WriteFile(name string, data []byte) error
	// Remove deletes name from the folder.
	Remove(name string) error
}

type osDirectory struct {
	path string
}

// OpenDirectory validates path and returns a handle for it. The folder must
// exist and accept a probe write.
func OpenDirectory(path string) (DirectoryHandle, error) {
	path, err := expandHome(strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrAccessBlocked, err)
		}
		return nil, fmt.Errorf("open directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}

	probe, err := os.CreateTemp(abs, ".meetnotes-probe-*")
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", ErrAccessBlocked, err)
		}
		return nil, fmt.Errorf("probe directory: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return &osDirectory{path: abs}, nil
}

func (d *osDirectory) Name() string { return filepath.Base(d.path) }

func (d *osDirectory) Path() string { return d.path }

func (d *osDirectory) WriteFile(name string, data []byte) error {
	target, err := d.resolve(name)
	if err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

func (d *osDirectory) Remove(name string) error {
	target, err := d.resolve(name)
	if err != nil {
		return err
	}
	return os.Remove(target)
}

// resolve keeps writes inside the granted folder.
func (d *osDirectory) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(d.path, name), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
