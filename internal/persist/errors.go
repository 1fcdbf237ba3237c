package persist

import "errors"

var (
	// ErrNotSupported means directory access cannot be offered here.
	ErrNotSupported = errors.New("directory access is not supported in this environment")
	// ErrAccessBlocked means directory access was refused by configuration
	// or by the file system.
	ErrAccessBlocked = errors.New("directory access is blocked")
	// ErrCancelled means the user dismissed the directory prompt. It is
	// not shown to the user.
	ErrCancelled = errors.New("directory selection cancelled")
	// ErrNotDirectory means the chosen path exists but is not a folder.
	ErrNotDirectory = errors.New("not a directory")
)
