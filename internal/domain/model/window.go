package model

import (
	"fmt"
	"time"
)

// Window is a fixed lookback period over which events are aggregated.
type Window string

// The closed window enumerant. Any other value is a caller input error.
const (
	Window7d   Window = "7d"
	Window30d  Window = "30d"
	Window180d Window = "180d"
	WindowAll  Window = "all"
)

// Windows lists every window in recompute order.
var Windows = []Window{Window7d, Window30d, Window180d, WindowAll}

// ParseWindow validates a caller-supplied window string.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case Window7d, Window30d, Window180d, WindowAll:
		return Window(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWindow, s)
}

// Since returns the inclusive lower bound on occurred_at for the window
// relative to now. The all-time window has no lower bound and returns
// ok=false.
func (w Window) Since(now time.Time) (time.Time, bool) {
	switch w {
	case Window7d:
		return now.AddDate(0, 0, -7), true
	case Window30d:
		return now.AddDate(0, 0, -30), true
	case Window180d:
		return now.AddDate(0, 0, -180), true
	default:
		return time.Time{}, false
	}
}
