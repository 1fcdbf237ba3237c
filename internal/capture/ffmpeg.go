package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultMonitorSource is the PulseAudio/PipeWire name for "what is playing".
const DefaultMonitorSource = "@DEFAULT_MONITOR@"

// FFmpegPlatform captures through ffmpeg's pulse input and lists sources with
// pactl. It works on PulseAudio and PipeWire (pipewire-pulse) hosts.
type FFmpegPlatform struct {
	FFmpegPath string
	PactlPath  string
	logger     *zap.Logger
}

// NewFFmpegPlatform returns a platform using the given binaries.
func NewFFmpegPlatform(ffmpegPath, pactlPath string, logger *zap.Logger) *FFmpegPlatform {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if pactlPath == "" {
		pactlPath = "pactl"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegPlatform{FFmpegPath: ffmpegPath, PactlPath: pactlPath, logger: logger}
}

// RequestMicrophone checks the tools exist and the sound server answers.
func (f *FFmpegPlatform) RequestMicrophone(ctx context.Context) error {
	if _, err := exec.LookPath(f.FFmpegPath); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if _, err := exec.LookPath(f.PactlPath); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	out, err := exec.CommandContext(ctx, f.PactlPath, "info").CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", classifyDiagnostics(string(out)), strings.TrimSpace(string(out)))
	}
	return nil
}

// ListInputDevices lists capture sources, excluding monitors.
func (f *FFmpegPlatform) ListInputDevices(ctx context.Context) ([]Device, error) {
	out, err := exec.CommandContext(ctx, f.PactlPath, "list", "short", "sources").Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list sources: %w", err)
	}
	return parseSources(out), nil
}

// OpenMicrophone starts ffmpeg on the given source, or the default one.
func (f *FFmpegPlatform) OpenMicrophone(ctx context.Context, deviceID string, format Format) (io.ReadCloser, error) {
	if deviceID == "" {
		deviceID = "default"
	}
	return f.open(deviceID, format)
}

// OpenSystemAudio starts ffmpeg on the default monitor source.
func (f *FFmpegPlatform) OpenSystemAudio(ctx context.Context, format Format) (io.ReadCloser, error) {
	return f.open(DefaultMonitorSource, format)
}

func (f *FFmpegPlatform) open(input string, format Format) (io.ReadCloser, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", "pulse", "-i", input,
		"-ac", "1", "-ar", strconv.Itoa(format.SampleRate),
		"-f", "s16le", "-",
	}
	// Not CommandContext: the stream outlives the call that opened it.
	cmd := exec.Command(f.FFmpegPath, args...)
	pr, pw := io.Pipe()
	stderr := &syncBuffer{}
	cmd.Stdout = pw
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		pw.Close()
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		return nil, fmt.Errorf("%w: start ffmpeg: %v", classifyDiagnostics(err.Error()), err)
	}
	f.logger.Debug("ffmpeg started", zap.String("input", input), zap.Int("pid", cmd.Process.Pid))

	s := &processStream{cmd: cmd, r: pr, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		if err != nil && !s.killed.Load() {
			diag := strings.TrimSpace(stderr.String())
			err = fmt.Errorf("%w: ffmpeg %s: %s", classifyDiagnostics(diag), input, diag)
		} else {
			err = nil
		}
		pw.CloseWithError(err)
		close(s.done)
	}()
	return s, nil
}

// processStream reads PCM from a running ffmpeg. Close kills the process.
type processStream struct {
	cmd       *exec.Cmd
	r         *io.PipeReader
	done      chan struct{}
	killed    atomic.Bool
	closeOnce sync.Once
}

func (s *processStream) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *processStream) Close() error {
	s.closeOnce.Do(func() {
		s.killed.Store(true)
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		<-s.done
		s.r.Close()
	})
	return nil
}

// parseSources reads `pactl list short sources`: index, name, driver,
// sample spec and state separated by tabs.
func parseSources(out []byte) []Device {
	var devices []Device
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Split(strings.TrimSpace(line), "\t")
		if len(fields) < 2 || fields[1] == "" {
			continue
		}
		name := fields[1]
		if strings.HasSuffix(name, ".monitor") {
			continue
		}
		devices = append(devices, Device{ID: name, Label: sourceLabel(name)})
	}
	return devices
}

// sourceLabel turns "alsa_input.usb-Blue_Yeti-00.analog-stereo" into
// "Blue Yeti (analog-stereo)".
func sourceLabel(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) < 3 {
		return name
	}
	dev := parts[1]
	if i := strings.Index(dev, "-"); i >= 0 {
		dev = dev[i+1:]
	}
	if i := strings.LastIndex(dev, "-"); i > 0 {
		dev = dev[:i]
	}
	dev = strings.ReplaceAll(dev, "_", " ")
	return fmt.Sprintf("%s (%s)", dev, strings.Join(parts[2:], "."))
}

func classifyDiagnostics(diag string) error {
	lower := strings.ToLower(diag)
	if strings.Contains(lower, "permission denied") || strings.Contains(lower, "access denied") {
		return ErrPermissionDenied
	}
	return ErrDeviceUnavailable
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
