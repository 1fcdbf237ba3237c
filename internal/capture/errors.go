package capture

import "errors"

var (
	// ErrPermissionDenied means the platform refused access to the device.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrDeviceUnavailable means the device is missing or cannot be opened.
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	// ErrCancelled means the user dismissed a capture prompt.
	ErrCancelled = errors.New("capture request cancelled")
	// ErrRecordingTooShort means the finished artifact was below MinArtifactSize.
	ErrRecordingTooShort = errors.New("recording too short")
	// ErrNotRecording is returned by Stop outside the Recording state.
	ErrNotRecording = errors.New("not recording")
	// ErrBusy is returned by Start when the pipeline is not idle.
	ErrBusy = errors.New("capture pipeline busy")
)
