package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jwulff/meetnotes/internal/capture"
	"github.com/jwulff/meetnotes/internal/meeting"
	"github.com/jwulff/meetnotes/internal/persist"
	"github.com/jwulff/meetnotes/internal/session"
	"github.com/jwulff/meetnotes/internal/transcribe"
	"github.com/jwulff/meetnotes/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// Route is the visible screen.
type Route int

const (
	RouteDashboard Route = iota
	RouteRecordings
	RouteSettings
)

var routeNames = []string{"Dashboard", "Recordings", "Settings"}

func (r Route) String() string {
	if int(r) < len(routeNames) {
		return routeNames[r]
	}
	return fmt.Sprintf("Route(%d)", int(r))
}

// InputMode is the prompt currently capturing keys, if any.
type InputMode int

const (
	InputNone InputMode = iota
	InputAPIKey
	InputDirectory
	InputConfirmClear
)

// Recorder is the capture pipeline as seen by the TUI.
type Recorder interface {
	Start(ctx context.Context, opts capture.Options) error
	Stop(ctx context.Context, process capture.Continuation) error
	Elapsed() int
	Devices(ctx context.Context) []capture.Device
	Failures() <-chan error
}

// Processor builds the continuation run when a recording stops.
type Processor interface {
	Continuation(dir persist.DirectoryHandle, done func(meeting.Result)) capture.Continuation
}

// SessionStore is the session history.
type SessionStore interface {
	Load(ctx context.Context) ([]session.Session, error)
	Sessions() []session.Session
	Clear(ctx context.Context, confirm func(prompt string) bool) (bool, error)
}

// Credentials holds the AI key.
type Credentials interface {
	HasAPIKey() bool
	SetAPIKey(key string)
}

// DirectoryRequester asks for and opens a folder.
type DirectoryRequester func(ctx context.Context, capability persist.Capability, prompt persist.Prompter) (persist.DirectoryHandle, error)

// Deps are the services the TUI drives.
type Deps struct {
	Recorder    Recorder
	Processor   Processor
	Store       SessionStore
	Credentials Credentials
	Logger      *zap.Logger

	// Capability is the directory-access probe result.
	Capability       persist.Capability
	RequestDirectory DirectoryRequester
	// Dir is a folder granted on the command line, if any.
	Dir persist.DirectoryHandle

	Model        string
	FilePrefix   string
	DeviceID     string
	SystemAudio  bool
	DownloadsDir string
}

// Model is the root bubbletea model for the meetnotes TUI.
type Model struct {
	deps Deps

	// Navigation
	route Route

	// Recording state
	recording   bool
	starting    bool
	processing  bool
	elapsed     int
	devices     []capture.Device
	deviceIndex int
	systemAudio bool

	// Sessions
	sessions      []session.Session
	selected      int
	detailScroll  int
	sessionsReady bool

	// Storage
	dir persist.DirectoryHandle

	// Credential
	hasKey bool

	// Prompt
	inputMode InputMode
	input     string

	// Errors and notices
	errorMessage   string
	errorTransient bool
	notice         string

	// UI state
	width  int
	height int
}

// New creates a Model. Without an API key the key prompt opens first.
func New(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.RequestDirectory == nil {
		deps.RequestDirectory = persist.RequestDirectoryAccess
	}
	m := Model{
		deps:        deps,
		systemAudio: deps.SystemAudio,
		dir:         deps.Dir,
	}
	if deps.Credentials != nil {
		m.hasKey = deps.Credentials.HasAPIKey()
	}
	if !m.hasKey {
		m.inputMode = InputAPIKey
	}
	return m
}

// Init loads history and devices and starts watching for capture failures.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadSessionsCmd(m.deps.Store),
		loadDevicesCmd(m.deps.Recorder),
		waitForFailureCmd(m.deps.Recorder.Failures()),
	)
}

// loadSessionsCmd reads the persisted history.
func loadSessionsCmd(store SessionStore) tea.Cmd {
	return func() tea.Msg {
		list, err := store.Load(context.Background())
		return SessionsLoadedMsg{Sessions: list, Err: err}
	}
}

// loadDevicesCmd enumerates inputs. The recorder caches the list.
func loadDevicesCmd(rec Recorder) tea.Cmd {
	return func() tea.Msg {
		return DevicesLoadedMsg{Devices: rec.Devices(context.Background())}
	}
}

// waitForFailureCmd blocks until the recorder reports a failure.
func waitForFailureCmd(failures <-chan error) tea.Cmd {
	if failures == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-failures
		if !ok {
			return nil
		}
		return CaptureFailedMsg{Err: err}
	}
}

// startCmd opens the inputs.
func startCmd(rec Recorder, opts capture.Options) tea.Cmd {
	return func() tea.Msg {
		return RecordingStartedMsg{Err: rec.Start(context.Background(), opts)}
	}
}

// stopCmd finalizes the recording and runs processing on it.
func stopCmd(rec Recorder, proc Processor, dir persist.DirectoryHandle) tea.Cmd {
	return func() tea.Msg {
		var result meeting.Result
		err := rec.Stop(context.Background(), proc.Continuation(dir, func(r meeting.Result) {
			result = r
		}))
		return ProcessingDoneMsg{Result: result, Err: err}
	}
}

// tickCmd refreshes the timer once a second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// chooseDirectoryCmd opens the typed folder path.
func chooseDirectoryCmd(request DirectoryRequester, capability persist.Capability, path string) tea.Cmd {
	return func() tea.Msg {
		dir, err := request(context.Background(), capability, persist.StaticPath(path))
		return DirectoryChosenMsg{Dir: dir, Err: err}
	}
}

// clearHistoryCmd wipes the history. The user already confirmed in the TUI.
func clearHistoryCmd(store SessionStore) tea.Cmd {
	return func() tea.Msg {
		cleared, err := store.Clear(context.Background(), func(string) bool { return true })
		return HistoryClearedMsg{Cleared: cleared, Err: err}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.inputMode != InputNone {
			return m.handleInput(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case SessionsLoadedMsg:
		m.sessionsReady = true
		if msg.Err != nil {
			m.deps.Logger.Warn("load sessions", zap.Error(msg.Err))
			return m.showError(msg.Err)
		}
		m.sessions = msg.Sessions
		m.clampSelection()
		return m, nil

	case DevicesLoadedMsg:
		m.devices = msg.Devices
		m.deviceIndex = 0
		for i, d := range m.devices {
			if d.ID == m.deps.DeviceID {
				m.deviceIndex = i
			}
		}
		return m, nil

	case RecordingStartedMsg:
		m.starting = false
		if msg.Err != nil {
			// A busy pipeline means an earlier start won; keep its state.
			if !errors.Is(msg.Err, capture.ErrBusy) {
				m.recording = false
			}
			return m.showError(msg.Err)
		}
		m.recording = true
		m.elapsed = 0
		m.notice = ""
		return m, tickCmd()

	case TickMsg:
		if !m.recording {
			return m, nil
		}
		m.elapsed = m.deps.Recorder.Elapsed()
		return m, tickCmd()

	case ProcessingDoneMsg:
		return m.handleProcessingDone(msg)

	case CaptureFailedMsg:
		m.recording = false
		m.elapsed = 0
		next, cmd := m.showError(msg.Err)
		return next, tea.Batch(cmd, waitForFailureCmd(m.deps.Recorder.Failures()))

	case DirectoryChosenMsg:
		if msg.Err != nil {
			if errors.Is(msg.Err, persist.ErrCancelled) {
				return m, nil
			}
			return m.showError(msg.Err)
		}
		m.dir = msg.Dir
		return m.showNotice("Saving recordings to " + msg.Dir.Path())

	case HistoryClearedMsg:
		if msg.Err != nil {
			return m.showError(msg.Err)
		}
		if msg.Cleared {
			m.sessions = nil
			m.selected = 0
			m.detailScroll = 0
			return m.showNotice("History cleared")
		}
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		m.notice = ""
		return m, nil
	}

	return m, nil
}

func (m Model) handleProcessingDone(msg ProcessingDoneMsg) (tea.Model, tea.Cmd) {
	m.processing = false
	m.recording = false
	m.elapsed = 0

	switch {
	case msg.Err == nil:
		m.sessions = m.deps.Store.Sessions()
		m.selected = 0
		m.detailScroll = 0
		m.route = RouteRecordings
		if msg.Result.Outcome.InDirectory {
			return m.showNotice("Saved to " + m.dir.Path())
		}
		return m.showNotice("Saved to Downloads")

	case errors.Is(msg.Err, capture.ErrRecordingTooShort):
		return m.showNotice("Recording too short, nothing was saved")

	case transcribe.IsAuthError(msg.Err):
		m.hasKey = false
		m.inputMode = InputAPIKey
		m.input = ""
		return m, nil
	}

	m.deps.Logger.Error("processing failed", zap.Error(msg.Err))
	return m.showError(msg.Err)
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		return m, tea.Quit

	case KeyDashboard:
		m.route = RouteDashboard
		return m, nil

	case KeyRecordings:
		m.route = RouteRecordings
		return m, nil

	case KeySettings:
		m.route = RouteSettings
		return m, nil

	case KeyTab:
		m.route = (m.route + 1) % Route(len(routeNames))
		return m, nil

	case KeyShiftTab:
		m.route = (m.route + Route(len(routeNames)) - 1) % Route(len(routeNames))
		return m, nil

	case KeySpace:
		if m.processing || m.starting {
			return m, nil
		}
		if m.recording {
			m.processing = true
			m.elapsed = m.deps.Recorder.Elapsed()
			return m, stopCmd(m.deps.Recorder, m.deps.Processor, m.dir)
		}
		if !m.hasKey {
			m.inputMode = InputAPIKey
			m.input = ""
			return m, nil
		}
		m.starting = true
		return m, startCmd(m.deps.Recorder, capture.Options{
			DeviceID:    m.currentDeviceID(),
			SystemAudio: m.systemAudio,
		})

	case KeyCycleDevice, KeyCycleDeviceUp:
		if m.recording || m.starting || m.processing || len(m.devices) == 0 {
			return m, nil
		}
		m.deviceIndex = (m.deviceIndex + 1) % len(m.devices)
		return m, nil

	case KeyToggleSysAud, KeyToggleSysUp:
		if m.recording || m.starting || m.processing {
			return m, nil
		}
		m.systemAudio = !m.systemAudio
		return m, nil

	case KeyDirectory:
		switch m.deps.Capability {
		case persist.Unsupported:
			return m.showError(persist.ErrNotSupported)
		case persist.Blocked:
			return m.showError(persist.ErrAccessBlocked)
		}
		m.inputMode = InputDirectory
		m.input = ""
		if m.dir != nil {
			m.input = m.dir.Path()
		}
		return m, nil

	case KeyAPIKey:
		m.inputMode = InputAPIKey
		m.input = ""
		return m, nil

	case KeyClearHistory:
		if m.route != RouteSettings {
			return m, nil
		}
		if len(m.sessions) == 0 {
			return m.showNotice("No recordings to clear")
		}
		m.inputMode = InputConfirmClear
		return m, nil

	case KeyJ, KeyDown:
		if m.route == RouteRecordings && m.selected < len(m.sessions)-1 {
			m.selected++
			m.detailScroll = 0
		}
		return m, nil

	case KeyK, KeyUp:
		if m.route == RouteRecordings && m.selected > 0 {
			m.selected--
			m.detailScroll = 0
		}
		return m, nil

	case "pgdown", "ctrl+d":
		if m.route == RouteRecordings {
			m.detailScroll += m.contentHeight() / 2
		}
		return m, nil

	case "pgup", "ctrl+u":
		if m.route == RouteRecordings {
			m.detailScroll = max(0, m.detailScroll-m.contentHeight()/2)
		}
		return m, nil
	}

	return m, nil
}

// handleInput routes keys to the open prompt.
func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == KeyCtrlC {
		return m, tea.Quit
	}

	if m.inputMode == InputConfirmClear {
		m.inputMode = InputNone
		if session.Confirmed(msg.String()) {
			return m, clearHistoryCmd(m.deps.Store)
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		// Cancelling the folder prompt keeps the current target silently.
		m.inputMode = InputNone
		m.input = ""
		return m, nil

	case tea.KeyEnter:
		return m.submitInput()

	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
		return m, nil

	case tea.KeySpace:
		m.input += " "
		return m, nil

	case tea.KeyRunes:
		m.input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input)
	mode := m.inputMode
	m.inputMode = InputNone
	m.input = ""

	switch mode {
	case InputAPIKey:
		if value == "" {
			m.inputMode = InputAPIKey
			return m, nil
		}
		m.deps.Credentials.SetAPIKey(value)
		m.hasKey = true
		return m.showNotice("API key set")

	case InputDirectory:
		if value == "" {
			return m, nil
		}
		return m, chooseDirectoryCmd(m.deps.RequestDirectory, m.deps.Capability, value)
	}
	return m, nil
}

func (m Model) showError(err error) (tea.Model, tea.Cmd) {
	m.errorMessage = describeError(err)
	m.errorTransient = true
	m.notice = ""
	return m, clearTransientErrorCmd()
}

func (m Model) showNotice(text string) (tea.Model, tea.Cmd) {
	m.notice = text
	return m, clearTransientErrorCmd()
}

// describeError turns known failures into short user-facing text.
func describeError(err error) string {
	switch {
	case errors.Is(err, capture.ErrPermissionDenied):
		return "Microphone access was denied."
	case errors.Is(err, capture.ErrDeviceUnavailable):
		return "No usable microphone was found."
	case errors.Is(err, capture.ErrBusy):
		return "A recording is already in progress."
	case errors.Is(err, transcribe.ErrEmptyResponse):
		return "The AI returned an empty transcript."
	case errors.Is(err, transcribe.ErrUnavailable):
		return "The AI service is unavailable. Try again shortly."
	case errors.Is(err, transcribe.ErrMalformedResponse):
		return "The AI returned an unexpected response."
	case errors.Is(err, persist.ErrNotSupported):
		return "Folder access isn't available here. Files go to Downloads."
	case errors.Is(err, persist.ErrAccessBlocked):
		return "Folder access is blocked. Files go to Downloads."
	case errors.Is(err, persist.ErrNotDirectory):
		return "That path is not a folder."
	}
	return err.Error()
}

func (m Model) currentDeviceID() string {
	if m.deviceIndex < len(m.devices) {
		return m.devices[m.deviceIndex].ID
	}
	return m.deps.DeviceID
}

func (m Model) currentDeviceName() string {
	if m.deviceIndex < len(m.devices) {
		return m.devices[m.deviceIndex].DisplayName()
	}
	if m.deps.DeviceID != "" {
		return m.deps.DeviceID
	}
	return "Default microphone"
}

func (m Model) storageTarget() string {
	if m.dir != nil {
		return m.dir.Path()
	}
	if m.deps.DownloadsDir != "" {
		return "Downloads (" + m.deps.DownloadsDir + ")"
	}
	return "Downloads"
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.sessions) {
		m.selected = max(0, len(m.sessions)-1)
	}
}

func (m Model) contentHeight() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + status(1) + divider(2) + prompt(1) + error(1) + footer(1)
	reserved := 7
	return max(5, m.height-reserved)
}

func (m Model) listPanelWidth() int {
	if m.width == 0 {
		return 30
	}
	return max(20, m.width*30/100)
}

func (m Model) detailPanelWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(30, m.width-m.listPanelWidth()-3)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	switch m.route {
	case RouteRecordings:
		sections = append(sections, m.renderRecordings())
	case RouteSettings:
		sections = append(sections, m.renderSettings())
	default:
		sections = append(sections, m.renderDashboard())
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.inputMode != InputNone {
		sections = append(sections, m.renderPrompt())
	}
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	} else if m.notice != "" {
		sections = append(sections, ui.NoticeStyle.Render(m.notice))
	}

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("MEETNOTES")

	var tabs []string
	for i, name := range routeNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if Route(i) == m.route {
			tabs = append(tabs, ui.TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, ui.TabStyle.Render(label))
		}
	}
	return title + "  " + strings.Join(tabs, "  ")
}

func (m Model) renderStatusBar() string {
	var dot string
	switch {
	case m.processing:
		dot = ui.SpinnerStyle.Render("⟳ PROCESSING")
	case m.recording:
		dot = ui.RecordingDotStyle.Render("● REC " + session.FormatSeconds(m.elapsed))
	case m.starting:
		dot = ui.SpinnerStyle.Render("○ STARTING")
	default:
		dot = ui.IdleDotStyle.Render("○ IDLE")
	}

	device := ui.DimStyle.Render("  " + m.currentDeviceName())
	var audioMode string
	if m.systemAudio {
		audioMode = ui.DimStyle.Render(" [MIC + SYS]")
	}
	target := ui.DimStyle.Render("  → " + m.storageTarget())

	return dot + device + audioMode + target
}

func (m Model) renderDashboard() string {
	height := m.contentHeight()
	var lines []string

	lines = append(lines, "")
	lines = append(lines, "  "+ui.TimerStyle.Render(session.FormatSeconds(m.elapsed)))
	lines = append(lines, "")

	switch {
	case m.processing:
		lines = append(lines, ui.SpinnerStyle.Render("  Transcribing with "+m.modelName()+"..."))
	case m.recording:
		lines = append(lines, ui.RecordingDotStyle.Render("  Recording. Press Space to stop."))
	case !m.hasKey:
		lines = append(lines, ui.DimStyle.Render("  Set an API key with K to start recording"))
	default:
		lines = append(lines, ui.DimStyle.Render("  Press Space to start recording"))
	}

	lines = append(lines, "")
	lines = append(lines, ui.PanelTitleStyle.Render(fmt.Sprintf("LATEST (%d total)", len(m.sessions))))
	if len(m.sessions) == 0 {
		if m.sessionsReady {
			lines = append(lines, ui.DimStyle.Render("  No recordings yet"))
		} else {
			lines = append(lines, ui.DimStyle.Render("  Loading..."))
		}
	} else {
		latest := m.sessions[0]
		lines = append(lines, "  "+latest.Title+ui.TimestampStyle.Render("  "+latest.Date+"  "+latest.DurationLabel()))
		preview := latest.Summary
		if preview == "" {
			preview = latest.Transcription
		}
		for _, wl := range wrapText(preview, max(10, m.width-6)) {
			if len(lines) >= height {
				break
			}
			lines = append(lines, ui.DimStyle.Render("    "+wl))
		}
	}

	return fitLines(lines, height)
}

func (m Model) renderRecordings() string {
	listW := m.listPanelWidth()
	detailW := m.detailPanelWidth()
	contentH := m.contentHeight()

	listPanel := strings.Split(m.renderSessionList(listW, contentH), "\n")
	detailPanel := strings.Split(m.renderSessionDetail(detailW, contentH), "\n")

	divider := ui.DividerStyle.Render("│")

	var rows []string
	for i := 0; i < contentH; i++ {
		left := strings.Repeat(" ", listW)
		if i < len(listPanel) {
			left = listPanel[i]
		}
		right := ""
		if i < len(detailPanel) {
			right = detailPanel[i]
		}
		rows = append(rows, left+divider+right)
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderSessionList(width, height int) string {
	header := padRight(ui.PanelTitleActiveStyle.Render(fmt.Sprintf("RECORDINGS (%d)", len(m.sessions))), width)
	lines := []string{header}

	if len(m.sessions) == 0 {
		lines = append(lines, ui.DimStyle.Render("  No recordings yet..."))
		lines = append(lines, ui.DimStyle.Render("  Finished sessions appear here"))
	}

	// Keep the selection visible.
	start := 0
	visible := height - 1
	if m.selected >= visible {
		start = m.selected - visible + 1
	}
	for i := start; i < len(m.sessions) && len(lines) < height; i++ {
		s := m.sessions[i]
		label := s.Title + " " + s.DurationLabel()
		var line string
		if i == m.selected {
			line = ui.SelectedStyle.Render(truncateToWidth("> "+label, width))
		} else {
			line = truncateToWidth("  "+label, width)
		}
		lines = append(lines, line)
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, l := range lines {
		lines[i] = padRight(l, width)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSessionDetail(width, height int) string {
	if len(m.sessions) == 0 || m.selected >= len(m.sessions) {
		return fitLines([]string{ui.PanelTitleStyle.Render("DETAILS")}, height)
	}
	s := m.sessions[m.selected]
	textWidth := max(10, width-2)

	var body []string
	body = append(body, ui.TimestampStyle.Render(s.Date+"  ·  "+s.DurationLabel()+"  ·  id "+s.ID))
	if s.Summary != "" {
		body = append(body, "", ui.SourceLabelStyle.Render("Summary"))
		body = append(body, wrapText(s.Summary, textWidth)...)
	}
	if len(s.ActionItems) > 0 {
		body = append(body, "", ui.SourceLabelStyle.Render("Action items"))
		for _, item := range s.ActionItems {
			body = append(body, wrapText("• "+item, textWidth)...)
		}
	}
	if s.Transcription != "" {
		body = append(body, "", ui.SourceLabelStyle.Render("Transcript"))
		body = append(body, wrapText(s.Transcription, textWidth)...)
	}

	start := min(m.detailScroll, max(0, len(body)-1))
	lines := []string{ui.PanelTitleActiveStyle.Render(s.Title)}
	for _, l := range body[start:] {
		lines = append(lines, " "+l)
	}
	return fitLines(lines, height)
}

func (m Model) renderSettings() string {
	keyStatus := ui.ErrorTextStyle.Render("missing")
	if m.hasKey {
		keyStatus = ui.NoticeStyle.Render("configured")
	}
	sysAudio := "off"
	if m.systemAudio {
		sysAudio = "on"
	}

	rows := [][2]string{
		{"API key", keyStatus},
		{"Model", m.modelName()},
		{"Save to", m.storageTarget()},
		{"Folder access", m.deps.Capability.String()},
		{"File prefix", m.filePrefix()},
		{"Microphone", m.currentDeviceName()},
		{"System audio", sysAudio},
		{"Recordings", fmt.Sprintf("%d", len(m.sessions))},
	}

	lines := []string{"", ui.PanelTitleStyle.Render("SETTINGS")}
	for _, r := range rows {
		lines = append(lines, "  "+padRight(ui.DimStyle.Render(r[0]), 16)+r[1])
	}
	lines = append(lines, "")
	lines = append(lines, ui.DimStyle.Render("  K set API key · d choose folder · a system audio · i microphone · x clear history"))
	return fitLines(lines, m.contentHeight())
}

func (m Model) renderPrompt() string {
	switch m.inputMode {
	case InputAPIKey:
		masked := strings.Repeat("•", len([]rune(m.input)))
		return ui.PromptStyle.Render("Gemini API key: ") + masked + "▌" + ui.DimStyle.Render("  (Enter to save)")
	case InputDirectory:
		return ui.PromptStyle.Render("Save folder: ") + m.input + "▌" + ui.DimStyle.Render("  (Enter to use, Esc to keep current)")
	case InputConfirmClear:
		return ui.PromptStyle.Render(session.ClearPrompt) + ui.DimStyle.Render(" [y/N]")
	}
	return ""
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string

	switch {
	case m.processing:
	case m.recording:
		parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Stop"))
	default:
		parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Record"))
		parts = append(parts, ui.FooterKeyStyle.Render("i")+ui.FooterDescStyle.Render(" Device"))
		parts = append(parts, ui.FooterKeyStyle.Render("a")+ui.FooterDescStyle.Render(" SysAudio"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("Tab")+ui.FooterDescStyle.Render(" View"))
	if m.route == RouteRecordings {
		parts = append(parts, ui.FooterKeyStyle.Render("j/k")+ui.FooterDescStyle.Render(" Select"))
	}
	if m.route == RouteSettings {
		parts = append(parts, ui.FooterKeyStyle.Render("x")+ui.FooterDescStyle.Render(" Clear"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("d")+ui.FooterDescStyle.Render(" Folder"))
	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}

func (m Model) modelName() string {
	if m.deps.Model != "" {
		return m.deps.Model
	}
	return transcribe.DefaultModel
}

func (m Model) filePrefix() string {
	if m.deps.FilePrefix != "" {
		return m.deps.FilePrefix
	}
	return meeting.DefaultFilePrefix
}

// Helpers

func fitLines(lines []string, height int) string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
