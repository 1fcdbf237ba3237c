package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/jwulff/meetnotes/internal/config"

	"github.com/jwulff/meetnotes/internal/capture"
	"github.com/jwulff/meetnotes/internal/persist"
	"github.com/jwulff/meetnotes/internal/session"
	"github.com/jwulff/meetnotes/internal/transcribe"
)

// isolate points the config at a fresh data directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MEETNOTES_DATA_DIR", dir)
	for _, key := range []string{"MEETNOTES_API_KEY", "GEMINI_API_KEY", "API_KEY", "MEETNOTES_LOG_FILE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func seed(t *testing.T, dataDir string, sessions ...session.Session) {
	t.Helper()
	store, err := session.Open(filepath.Join(dataDir, "meetnotes.sqlite"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	for _, s := range sessions {
		if err := store.Append(context.Background(), s); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "version flag", args: []string{"--version"}, want: "dev"},
		{name: "help flag", args: []string{"--help"}, want: "meetnotes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output %q does not contain %q", out, tt.want)
			}
		})
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"record", "devices", "sessions", "summarize", "clear", "mcp"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestSessionsListEmpty(t *testing.T) {
	isolate(t)

	out, err := run(t, "sessions", "list")
	if err != nil {
		t.Fatalf("sessions list: %v", err)
	}
	if !strings.Contains(out, "No sessions recorded yet") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestSessionsShowAndExport(t *testing.T) {
	dir := isolate(t)
	seed(t, dir,
		session.Session{ID: "1000", Date: "Jan 1, 2026 9:00 AM", Title: "Session Jan 1, 2026", Duration: 65, Transcription: "# Executive Summary\nFirst"},
		session.Session{ID: "2000", Date: "Jan 2, 2026 9:00 AM", Title: "Session Jan 2, 2026", Duration: 5, Transcription: "Second"},
	)

	out, err := run(t, "sessions", "list")
	if err != nil {
		t.Fatalf("sessions list: %v", err)
	}
	if !strings.Contains(out, "2 session(s)") {
		t.Errorf("list output missing count: %q", out)
	}
	if strings.Index(out, "2000") > strings.Index(out, "1000") {
		t.Errorf("newest session should be listed first: %q", out)
	}

	out, err = run(t, "sessions", "show", "1000")
	if err != nil {
		t.Fatalf("sessions show: %v", err)
	}
	if !strings.Contains(out, "First") || !strings.Contains(out, "1:05") {
		t.Errorf("show output missing transcript or duration: %q", out)
	}

	if _, err := run(t, "sessions", "show", "missing"); err == nil {
		t.Error("show of an unknown id should fail")
	}

	target := filepath.Join(t.TempDir(), "history.json")
	if _, err := run(t, "sessions", "export", "--format", "json", "--output", target); err != nil {
		t.Fatalf("sessions export: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var exported []session.Session
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if len(exported) != 2 || exported[0].ID != "2000" {
		t.Errorf("unexpected export: %+v", exported)
	}
	exportOutput = ""
	exportFormat = "md"
}

func TestClearWithoutConfirmationKeepsHistory(t *testing.T) {
	dir := isolate(t)
	seed(t, dir, session.Session{ID: "1", Title: "a"})

	out, err := run(t, "clear")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !strings.Contains(out, "Nothing deleted") {
		t.Errorf("unexpected output: %q", out)
	}

	out, err = run(t, "clear", "--yes")
	if err != nil {
		t.Fatalf("clear --yes: %v", err)
	}
	clearYes = false
	if !strings.Contains(out, "History cleared") {
		t.Errorf("unexpected output: %q", out)
	}

	out, _ = run(t, "sessions", "list")
	if !strings.Contains(out, "No sessions recorded yet") {
		t.Errorf("history should be empty after clear: %q", out)
	}
}

func TestPromptConfirm(t *testing.T) {
	var out bytes.Buffer
	if !promptConfirm(strings.NewReader("yes\n"), &out)(session.ClearPrompt) {
		t.Error("yes should confirm")
	}
	if !strings.Contains(out.String(), session.ClearPrompt) {
		t.Errorf("prompt not shown: %q", out.String())
	}
	if promptConfirm(strings.NewReader("\n"), &out)(session.ClearPrompt) {
		t.Error("empty answer should not confirm")
	}
	if promptConfirm(strings.NewReader(""), &out)(session.ClearPrompt) {
		t.Error("EOF should not confirm")
	}
}

func TestWriteDevices(t *testing.T) {
	var buf bytes.Buffer
	writeDevices(&buf, nil, "")
	if !strings.Contains(buf.String(), "No input devices") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	buf.Reset()
	writeDevices(&buf, []capture.Device{
		{ID: "alsa_input.usb", Label: "USB Mic"},
		{ID: "default"},
	}, "default")
	out := buf.String()
	for _, want := range []string{"2 input device(s)", "USB Mic", "alsa_input.usb", "* default"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	writeSummary(&buf, transcribe.Summary{Summary: "Planned Q3.", ActionItems: []string{"Ship beta"}})
	if !strings.Contains(buf.String(), "Planned Q3.") || !strings.Contains(buf.String(), "- [ ] Ship beta") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	buf.Reset()
	writeSummary(&buf, transcribe.Summary{Summary: "s"})
	if !strings.Contains(buf.String(), "none") {
		t.Errorf("empty action items should print none: %q", buf.String())
	}
}

func TestChooseRecordDirectory(t *testing.T) {
	t.Cleanup(func() { recordDir, recordPickDir = "", false })
	prober := persist.NewProber(true)

	dir, err := chooseRecordDirectory(context.Background(), prober, strings.NewReader(""), &bytes.Buffer{})
	if err != nil || dir != nil {
		t.Fatalf("no flags should mean downloads, got %v, %v", dir, err)
	}

	recordDir = t.TempDir()
	dir, err = chooseRecordDirectory(context.Background(), prober, strings.NewReader(""), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("--dir: %v", err)
	}
	if dir == nil || dir.Path() != recordDir {
		t.Errorf("expected handle for %s, got %v", recordDir, dir)
	}

	recordDir = filepath.Join(t.TempDir(), "missing")
	if _, err := chooseRecordDirectory(context.Background(), prober, strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Error("a missing --dir should fail")
	}

	// Blocked access falls back to downloads.
	recordDir, recordPickDir = "", true
	var out bytes.Buffer
	dir, err = chooseRecordDirectory(context.Background(), persist.NewProber(false), strings.NewReader(""), &out)
	if err != nil || dir != nil {
		t.Fatalf("blocked picker should fall back, got %v, %v", dir, err)
	}
	if !strings.Contains(out.String(), "Downloads") {
		t.Errorf("fallback not reported: %q", out.String())
	}
}

func TestWaitForStop(t *testing.T) {
	if err := waitForStop(context.Background(), 10*time.Millisecond, nil); err != nil {
		t.Errorf("duration elapsed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := waitForStop(ctx, 0, nil); err != nil {
		t.Errorf("cancelled: %v", err)
	}

	failures := make(chan error, 1)
	failures <- capture.ErrDeviceUnavailable
	if err := waitForStop(context.Background(), 0, failures); !errors.Is(err, capture.ErrDeviceUnavailable) {
		t.Errorf("failure not returned: %v", err)
	}
}

// liveStream serves its PCM then blocks until closed, like an open device.
type liveStream struct {
	data   *bytes.Reader
	closed chan struct{}
	once   sync.Once
}

func (s *liveStream) Read(p []byte) (int, error) {
	if s.data.Len() > 0 {
		return s.data.Read(p)
	}
	<-s.closed
	return 0, io.EOF
}

func (s *liveStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type stubPlatform struct{ pcm []byte }

func (p stubPlatform) RequestMicrophone(ctx context.Context) error { return nil }

func (p stubPlatform) ListInputDevices(ctx context.Context) ([]capture.Device, error) {
	return []capture.Device{{ID: "default", Label: "Default"}}, nil
}

func (p stubPlatform) OpenMicrophone(ctx context.Context, deviceID string, format capture.Format) (io.ReadCloser, error) {
	return &liveStream{data: bytes.NewReader(p.pcm), closed: make(chan struct{})}, nil
}

func (p stubPlatform) OpenSystemAudio(ctx context.Context, format capture.Format) (io.ReadCloser, error) {
	return nil, capture.ErrCancelled
}

type stubBackend struct{ text string }

func (b stubBackend) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: b.text}}},
		}},
	}, nil
}

func TestRecordAppendsToExistingHistory(t *testing.T) {
	dataDir := isolate(t)
	t.Setenv("MEETNOTES_API_KEY", "test-key")
	seed(t, dataDir, session.Session{ID: "1000", Title: "earlier", Transcription: "old"})

	origPlatform, origBackend := newPlatform, newBackend
	t.Cleanup(func() {
		newPlatform, newBackend = origPlatform, origBackend
		recordDuration, recordDir = 0, ""
	})
	newPlatform = func(*config.Config, *zap.Logger) capture.Platform {
		return stubPlatform{pcm: make([]byte, 16000)}
	}
	newBackend = func(ctx context.Context, apiKey string) (transcribe.Backend, error) {
		return stubBackend{text: "T"}, nil
	}

	outDir := t.TempDir()
	out, err := run(t, "record", "--duration", "200ms", "--dir", outDir)
	if err != nil {
		t.Fatalf("record: %v\n%s", err, out)
	}

	store, err := session.Open(filepath.Join(dataDir, "meetnotes.sqlite"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	list, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected the new session on top of the old one, got %d sessions", len(list))
	}
	if list[0].Transcription != "T" || list[1].ID != "1000" {
		t.Errorf("unexpected history: %+v", list)
	}

	id := list[0].ID
	for _, name := range []string{"Meeting_" + id + ".wav", "Meeting_" + id + ".txt"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
	if !strings.Contains(out, "Session "+id) {
		t.Errorf("output should name the session: %q", out)
	}
}
