package tracker

import (
	"fmt"
	"time"
)

// FormatClock форматирует длительность как HH:MM:SS
func FormatClock(d time.Duration) string {
	sec := int64(max(d, 0) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec%3600/60, sec%60)
}

// FormatShort форматирует длительность как "1h 5m", "5m" или "42s"
func FormatShort(d time.Duration) string {
	sec := int64(max(d, 0) / time.Second)
	h, m := sec/3600, sec%3600/60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}

// FormatHM форматирует длительность как "Xh Ym"
func FormatHM(d time.Duration) string {
	d = max(d, 0)
	return fmt.Sprintf("%dh %dm", int64(d/time.Hour), int64(d%time.Hour/time.Minute))
}
