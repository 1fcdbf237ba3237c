package persist

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxDuplicates bounds the "name (n).ext" search.
const maxDuplicates = 1000

// Downloader hands finished content to the user outside any granted folder.
type Downloader interface {
	Download(name string, data []byte) (string, error)
}

// FolderDownloader saves into a Downloads folder. Content is first written
// to a transient file, then moved under a unique name.
type FolderDownloader struct {
	Dir     string
	TempDir string
}

// DefaultDownloadsDir returns $XDG_DOWNLOAD_DIR or ~/Downloads.
func DefaultDownloadsDir() string {
	if dir := os.Getenv("XDG_DOWNLOAD_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "Downloads"
	}
	return filepath.Join(home, "Downloads")
}

// Download stores data and returns the final path.
func (d FolderDownloader) Download(name string, data []byte) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = DefaultDownloadsDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create downloads dir: %w", err)
	}

	tmp, err := os.CreateTemp(d.TempDir, "meetnotes-download-*")
	if err != nil {
		return "", fmt.Errorf("create transient file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write transient file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return "", err
	}
	defer tmp.Close()

	out, target, err := createUnique(dir, filepath.Base(name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, tmp); err != nil {
		out.Close()
		os.Remove(target)
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", target, err)
	}
	return target, nil
}

// createUnique claims name in dir, or "base (n).ext" when taken.
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 0; i < maxDuplicates; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", base, i, ext)
		}
		target := filepath.Join(dir, candidate)
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, target, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", target, err)
		}
	}
	return nil, "", fmt.Errorf("no free name for %s in %s", name, dir)
}
