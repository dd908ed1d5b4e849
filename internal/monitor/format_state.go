package monitor

import "github.com/nerrad567/melsec-monitor/internal/format"

// FormatSetting holds the active display format.
// It is owned by the Loop.
type FormatSetting struct {
	current     format.Format
	subscribers []func(format.Format)
}

// NewFormatSetting creates a setting starting at f, or format.Default when f is invalid.
func NewFormatSetting(f format.Format) *FormatSetting {
	if !f.Valid() {
		f = format.Default
	}
	return &FormatSetting{current: f}
}

// Current returns the active format.
func (s *FormatSetting) Current() format.Format {
	return s.current
}

// Set changes the active format and notifies subscribers.
// It reports whether the format changed; setting the same format is a no-op.
func (s *FormatSetting) Set(f format.Format) bool {
	if !f.Valid() || f == s.current {
		return false
	}
	s.current = f
	for _, fn := range s.subscribers {
		fn(f)
	}
	return true
}

// Subscribe registers fn to run after every change, in registration order.
func (s *FormatSetting) Subscribe(fn func(format.Format)) {
	s.subscribers = append(s.subscribers, fn)
}
