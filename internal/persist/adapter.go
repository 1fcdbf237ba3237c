// Package persist writes session artifacts into a user-granted folder, or
// falls back to the Downloads folder.
package persist

import (
	"go.uber.org/zap"
)

// Artifact is one named file of a session.
type Artifact struct {
	Name string
	Data []byte
}

// Outcome reports where a session's artifacts ended up.
type Outcome struct {
	// InDirectory is true when every artifact was written to the folder.
	InDirectory bool
	Written     []string
	Downloaded  []string
}

// Adapter routes artifacts to a folder or to downloads.
type Adapter struct {
	downloader Downloader
	logger     *zap.Logger
}

// NewAdapter returns an adapter using downloader for the fallback path.
func NewAdapter(downloader Downloader, logger *zap.Logger) *Adapter {
	if downloader == nil {
		downloader = FolderDownloader{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{downloader: downloader, logger: logger}
}

// WriteArtifact writes data into dir. Failures are logged and reported as
// false.
func (a *Adapter) WriteArtifact(dir DirectoryHandle, name string, data []byte) bool {
	if dir == nil {
		return false
	}
	if err := dir.WriteFile(name, data); err != nil {
		a.logger.Warn("directory write failed",
			zap.String("dir", dir.Path()),
			zap.String("file", name),
			zap.Error(err))
		return false
	}
	return true
}

// DownloadArtifact hands data to the downloader. Errors are only logged.
func (a *Adapter) DownloadArtifact(data []byte, name string) string {
	path, err := a.downloader.Download(name, data)
	if err != nil {
		a.logger.Error("download failed", zap.String("file", name), zap.Error(err))
		return ""
	}
	a.logger.Info("artifact downloaded", zap.String("path", path))
	return path
}

// SaveSession stores every artifact in dir, or every artifact in downloads.
// A partial folder write is rolled back before falling back.
func (a *Adapter) SaveSession(dir DirectoryHandle, artifacts ...Artifact) Outcome {
	if dir != nil {
		var written []string
		ok := true
		for _, art := range artifacts {
			if !a.WriteArtifact(dir, art.Name, art.Data) {
				ok = false
				break
			}
			written = append(written, art.Name)
		}
		if ok {
			return Outcome{InDirectory: true, Written: written}
		}
		for _, name := range written {
			if err := dir.Remove(name); err != nil {
				a.logger.Warn("rollback failed", zap.String("file", name), zap.Error(err))
			}
		}
	}

	var out Outcome
	for _, art := range artifacts {
		if path := a.DownloadArtifact(art.Data, art.Name); path != "" {
			out.Downloaded = append(out.Downloaded, path)
		}
	}
	return out
}
