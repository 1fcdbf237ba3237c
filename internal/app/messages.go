package app

import (
	"github.com/jwulff/meetnotes/internal/capture"
	"github.com/jwulff/meetnotes/internal/meeting"
	"github.com/jwulff/meetnotes/internal/persist"
	"github.com/jwulff/meetnotes/internal/session"
)

// SessionsLoadedMsg carries the history read at startup.
type SessionsLoadedMsg struct {
	Sessions []session.Session
	Err      error
}

// DevicesLoadedMsg carries the input device list.
type DevicesLoadedMsg struct {
	Devices []capture.Device
}

// RecordingStartedMsg is the result of a start request.
type RecordingStartedMsg struct {
	Err error
}

// TickMsg refreshes the recording timer.
type TickMsg struct{}

// ProcessingDoneMsg is sent when a stopped recording has been finalized and
// processed, or rejected.
type ProcessingDoneMsg struct {
	Result meeting.Result
	Err    error
}

// CaptureFailedMsg reports a recording that ended on its own.
type CaptureFailedMsg struct {
	Err error
}

// DirectoryChosenMsg carries the outcome of a folder request.
type DirectoryChosenMsg struct {
	Dir persist.DirectoryHandle
	Err error
}

// HistoryClearedMsg is the result of clearing the session history.
type HistoryClearedMsg struct {
	Cleared bool
	Err     error
}

// ClearTransientErrorMsg clears a transient error or notice after a timeout.
type ClearTransientErrorMsg struct{}
