package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State is the capture pipeline state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateFinalizing:
		return "finalizing"
	default:
		return "idle"
	}
}

// Options selects the inputs for a recording.
type Options struct {
	DeviceID    string
	SystemAudio bool
}

// Capture is the result handed to the processing continuation.
type Capture struct {
	Artifact  Artifact
	Duration  int // whole seconds
	StartedAt time.Time
}

// Continuation processes a finished capture. It runs while the pipeline is
// Finalizing; the pipeline returns to Idle when it returns.
type Continuation func(ctx context.Context, c Capture) error

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces time.Now, for tests.
func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) { p.clock = clock }
}

// Pipeline owns every stream and mixer resource of the current recording.
type Pipeline struct {
	platform Platform
	format   Format
	logger   *zap.Logger
	clock    func() time.Time

	devicesOnce sync.Once
	devices     []Device

	mu           sync.Mutex
	state        State
	acquiring    bool
	startedAt    time.Time
	finalElapsed int
	rec          *recording

	failures chan error
}

// recording is the resource set of one Recording state.
type recording struct {
	mixer    *Mixer
	recorder *Recorder
	group    *errgroup.Group

	pending   []source
	streams   []io.Closer
	stopping  atomic.Bool
	closeOnce sync.Once
}

// release closes every acquired stream exactly once.
func (r *recording) release(logger *zap.Logger) {
	r.closeOnce.Do(func() {
		r.stopping.Store(true)
		for _, s := range r.streams {
			if err := s.Close(); err != nil {
				logger.Debug("close stream", zap.Error(err))
			}
		}
	})
}

// New creates an idle pipeline.
func New(platform Platform, format Format, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if format.SampleRate <= 0 {
		format = DefaultFormat
	}
	p := &Pipeline{
		platform: platform,
		format:   format,
		logger:   logger,
		clock:    time.Now,
		failures: make(chan error, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Elapsed returns whole seconds since Start. It is frozen while Finalizing
// and 0 when Idle.
func (p *Pipeline) Elapsed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateRecording:
		return p.elapsedLocked()
	case StateFinalizing:
		return p.finalElapsed
	default:
		return 0
	}
}

func (p *Pipeline) elapsedLocked() int {
	return int(p.clock().Sub(p.startedAt) / time.Second)
}

// Failures delivers capture failures that ended a recording on their own,
// such as the microphone disappearing.
func (p *Pipeline) Failures() <-chan error { return p.failures }

// Devices returns the audio inputs. The list is built once: microphone
// access is requested first so labels are populated. Failures are logged
// and leave the list empty.
func (p *Pipeline) Devices(ctx context.Context) []Device {
	p.devicesOnce.Do(func() {
		if err := p.platform.RequestMicrophone(ctx); err != nil {
			p.logger.Warn("microphone access", zap.Error(err))
			return
		}
		devices, err := p.platform.ListInputDevices(ctx)
		if err != nil {
			p.logger.Warn("list input devices", zap.Error(err))
			return
		}
		p.devices = devices
	})
	out := make([]Device, len(p.devices))
	copy(out, p.devices)
	return out
}

// Start opens the inputs and begins buffering. The microphone is mandatory;
// system audio is best effort and its failure or cancellation leaves a
// mic-only recording.
func (p *Pipeline) Start(ctx context.Context, opts Options) error {
	p.mu.Lock()
	if p.state != StateIdle || p.acquiring {
		p.mu.Unlock()
		return ErrBusy
	}
	p.acquiring = true
	p.mu.Unlock()

	rec, err := p.acquire(ctx, opts)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquiring = false
	if err != nil {
		return err
	}
	p.rec = rec
	p.state = StateRecording
	p.startedAt = p.clock()
	p.finalElapsed = 0
	p.startPumps(rec)
	p.logger.Info("recording started",
		zap.String("device", opts.DeviceID),
		zap.Int("sources", len(rec.streams)))
	return nil
}

type source struct {
	name   string
	stream io.ReadCloser
	mic    bool
	id     int
}

func (p *Pipeline) acquire(ctx context.Context, opts Options) (*recording, error) {
	mic, err := p.platform.OpenMicrophone(ctx, opts.DeviceID, p.format)
	if err != nil {
		return nil, fmt.Errorf("open microphone: %w", err)
	}

	recorder := NewRecorder(p.format)
	rec := &recording{
		mixer:    NewMixer(recorder),
		recorder: recorder,
		streams:  []io.Closer{mic},
	}
	rec.pending = append(rec.pending, source{name: "microphone", stream: mic, mic: true})

	if opts.SystemAudio {
		sys, err := p.platform.OpenSystemAudio(ctx, p.format)
		switch {
		case errors.Is(err, ErrCancelled):
			p.logger.Info("system audio cancelled, recording microphone only")
		case err != nil:
			p.logger.Warn("system audio unavailable, recording microphone only", zap.Error(err))
		default:
			rec.streams = append(rec.streams, sys)
			rec.pending = append(rec.pending, source{name: "systemAudio", stream: sys})
		}
	}
	return rec, nil
}

// startPumps connects every source to the mixer. Caller holds mu.
func (p *Pipeline) startPumps(rec *recording) {
	rec.group = new(errgroup.Group)
	for _, src := range rec.pending {
		src.id = rec.mixer.Connect(src.name)
		rec.group.Go(func() error { return p.pump(rec, src) })
	}
	rec.pending = nil
}

func (p *Pipeline) pump(rec *recording, src source) error {
	defer rec.mixer.Disconnect(src.id)

	frameBytes := (p.format.SampleRate / 50) * bytesPerSample // 20ms
	buf := make([]byte, frameBytes)
	for {
		n, err := io.ReadFull(src.stream, buf)
		if n >= bytesPerSample {
			rec.mixer.Push(src.id, decodeFrame(buf[:n-n%bytesPerSample]))
		}
		if err == nil {
			continue
		}
		if rec.stopping.Load() {
			return nil
		}
		if !src.mic {
			p.logger.Warn("system audio stream ended", zap.Error(err))
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		err = fmt.Errorf("%s stream: %w", src.name, err)
		p.fail(rec, err)
		return err
	}
}

// fail tears down a recording whose microphone died.
func (p *Pipeline) fail(rec *recording, err error) {
	p.mu.Lock()
	if p.rec != rec || p.state != StateRecording {
		p.mu.Unlock()
		return
	}
	p.rec = nil
	p.state = StateIdle
	p.startedAt = time.Time{}
	p.mu.Unlock()

	rec.release(p.logger)
	p.logger.Error("recording aborted", zap.Error(err))
	select {
	case p.failures <- err:
	default:
	}
}

// Stop ends the recording, finalizes the artifact and runs process with it.
// It is a no-op returning ErrNotRecording unless the pipeline is Recording.
// Artifacts below MinArtifactSize are rejected with ErrRecordingTooShort
// and never reach process. The pipeline is Idle again when Stop returns.
func (p *Pipeline) Stop(ctx context.Context, process Continuation) error {
	p.mu.Lock()
	if p.state != StateRecording || p.rec == nil {
		p.mu.Unlock()
		return ErrNotRecording
	}
	rec := p.rec
	startedAt := p.startedAt
	p.finalElapsed = p.elapsedLocked()
	elapsed := p.finalElapsed
	p.state = StateFinalizing
	p.mu.Unlock()

	defer p.reset()

	rec.release(p.logger)
	if err := rec.group.Wait(); err != nil {
		p.logger.Warn("capture source error during stop", zap.Error(err))
	}
	rec.mixer.Flush()
	artifact := rec.recorder.Finish()

	p.logger.Info("recording finalized",
		zap.Int("bytes", artifact.Size()),
		zap.Int("seconds", elapsed))

	if artifact.Size() < MinArtifactSize {
		return ErrRecordingTooShort
	}
	if process == nil {
		return nil
	}
	return process(ctx, Capture{Artifact: artifact, Duration: elapsed, StartedAt: startedAt})
}

func (p *Pipeline) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rec = nil
	p.state = StateIdle
	p.startedAt = time.Time{}
	p.finalElapsed = 0
}

func decodeFrame(b []byte) []int16 {
	frame := make([]int16, len(b)/bytesPerSample)
	for i := range frame {
		frame[i] = int16(binary.LittleEndian.Uint16(b[i*bytesPerSample:]))
	}
	return frame
}
