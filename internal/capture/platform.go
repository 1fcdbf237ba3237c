// Package capture acquires audio input streams, mixes them into a single
// recordable stream and produces a finished audio artifact on stop.
package capture

import (
	"context"
	"io"
)

// Device describes an audio input. Label may be empty until the platform
// has granted microphone access.
type Device struct {
	ID    string `json:"deviceId"`
	Label string `json:"label"`
}

// DisplayName returns the label, or the ID when no label is known.
func (d Device) DisplayName() string {
	if d.Label != "" {
		return d.Label
	}
	return d.ID
}

// Format is the PCM layout every stream delivers: signed 16-bit little
// endian, mono.
type Format struct {
	SampleRate int
}

// DefaultFormat is 16kHz mono, enough for speech.
var DefaultFormat = Format{SampleRate: 16000}

// BytesPerSecond returns the PCM byte rate for the format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * bytesPerSample
}

// Platform is the host capability that hands out audio streams.
// Streams deliver raw PCM in the requested Format and stop the underlying
// device when closed.
type Platform interface {
	// RequestMicrophone asks for microphone access. Many platforms only
	// expose device labels after this succeeds.
	RequestMicrophone(ctx context.Context) error
	// ListInputDevices returns the available audio inputs.
	ListInputDevices(ctx context.Context) ([]Device, error)
	// OpenMicrophone opens the given input; an empty deviceID selects the
	// platform default.
	OpenMicrophone(ctx context.Context, deviceID string, format Format) (io.ReadCloser, error)
	// OpenSystemAudio opens a capture of what the machine is playing.
	// Returns ErrCancelled when the user dismisses the request.
	OpenSystemAudio(ctx context.Context, format Format) (io.ReadCloser, error)
}
