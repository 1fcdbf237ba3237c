// Package session keeps the newest-first history of completed recordings.
package session

import (
	"fmt"
	"strconv"
	"time"
)

// Session is one completed recording. It is never modified after creation.
type Session struct {
	ID            string   `json:"id" yaml:"id"`
	Date          string   `json:"date" yaml:"date"`
	Title         string   `json:"title" yaml:"title"`
	Duration      int      `json:"duration" yaml:"duration"`
	Transcription string   `json:"transcription,omitempty" yaml:"transcription,omitempty"`
	Summary       string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	ActionItems   []string `json:"actionItems,omitempty" yaml:"actionItems,omitempty"`
}

// dateLayout renders the local completion time.
const dateLayout = "Jan 2, 2006 3:04 PM"

// NewID returns the id for a session completed at t: Unix milliseconds.
func NewID(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// FormatDate renders t in local time.
func FormatDate(t time.Time) string {
	return t.Local().Format(dateLayout)
}

// DefaultTitle is the title given to a session completed at t.
func DefaultTitle(t time.Time) string {
	return "Session " + t.Local().Format("Jan 2, 2006")
}

// CompletedAt recovers the completion time from the id.
func (s Session) CompletedAt() (time.Time, bool) {
	ms, err := strconv.ParseInt(s.ID, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// DurationLabel formats the duration as m:ss.
func (s Session) DurationLabel() string {
	return FormatSeconds(s.Duration)
}

// FormatSeconds formats whole seconds as m:ss, or h:mm:ss past an hour.
func FormatSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	h, m, sec := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

func (s Session) clone() Session {
	if s.ActionItems != nil {
		s.ActionItems = append([]string(nil), s.ActionItems...)
	}
	return s
}
