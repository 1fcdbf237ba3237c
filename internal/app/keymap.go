package app

// Key binding constants used in handleKey.
const (
	KeyQuit          = "q"
	KeyQuitUpper     = "Q"
	KeyCtrlC         = "ctrl+c"
	KeySpace         = " "
	KeyTab           = "tab"
	KeyShiftTab      = "shift+tab"
	KeyDashboard     = "1"
	KeyRecordings    = "2"
	KeySettings      = "3"
	KeyUp            = "up"
	KeyDown          = "down"
	KeyJ             = "j"
	KeyK             = "k"
	KeyEnter         = "enter"
	KeyEsc           = "esc"
	KeyBackspace     = "backspace"
	KeyCycleDevice   = "i"
	KeyCycleDeviceUp = "I"
	KeyToggleSysAud  = "a"
	KeyToggleSysUp   = "A"
	KeyDirectory     = "d"
	KeyClearHistory  = "x"
	KeyAPIKey        = "K"
)
