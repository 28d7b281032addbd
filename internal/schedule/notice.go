package schedule

import (
	"fmt"
	"time"
)

// LockedNotice is shown when the user tries to open a window before it starts.
// The unlock instant is taken from w.Start.
func LockedNotice(w Window) string {
	return fmt.Sprintf("%s은 %s에 열립니다 🔒", w.Label, FormatInstant(w.Start))
}

// ExpiredNotice is shown when the user tries to open a window that has ended.
func ExpiredNotice(w Window) string {
	return fmt.Sprintf("%s은 종료되었습니다 ⏰", w.Label)
}

// FormatInstant renders an instant the way the retreat notices do,
// e.g. "1월 12일 오전 7시" or "2월 8일 오후 1시 30분".
func FormatInstant(t time.Time) string {
	return fmt.Sprintf("%d월 %d일 %s", int(t.Month()), t.Day(), formatClock(t))
}

func formatClock(t time.Time) string {
	h, m := t.Hour(), t.Minute()
	var s string
	switch {
	case h == 0:
		s = "자정"
	case h < 12:
		s = fmt.Sprintf("오전 %d시", h)
	case h == 12:
		s = "낮 12시"
	default:
		s = fmt.Sprintf("오후 %d시", h-12)
	}
	if m != 0 {
		s += fmt.Sprintf(" %d분", m)
	}
	return s
}
