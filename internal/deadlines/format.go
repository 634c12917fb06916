package deadlines

import (
	"fmt"
	"time"

	"github.com/workqueue-dev/workqueue/internal/types"
)

// FormatDeadline renders a deadline for humans: date plus time when the
// publisher set an explicit time, date only otherwise.
func FormatDeadline(t time.Time, hasTime bool) string {
	if hasTime {
		return t.Format("Jan 2, 2006 3:04 PM")
	}
	return t.Format("Jan 2, 2006")
}

// TimeRemaining phrases the countdown to deadline: minutes only below one
// hour, "H hours and M minutes" below a day, "D day(s) and H hours" past
// that.
func TimeRemaining(deadline, now time.Time) string {
	diff := deadline.Sub(now)
	if diff <= 0 {
		return "Assignment is overdue!"
	}

	hours := int(diff / time.Hour)
	minutes := int((diff % time.Hour) / time.Minute)

	switch {
	case hours < 1:
		return fmt.Sprintf("%d minutes", minutes)
	case hours < 24:
		return fmt.Sprintf("%d hours and %d minutes", hours, minutes)
	default:
		return fmt.Sprintf("%d day(s) and %d hours", hours/24, hours%24)
	}
}

// Remaining breaks the countdown down for API responses.
func Remaining(deadline, now time.Time) types.TimeRemaining {
	diff := deadline.Sub(now)
	hours := int(diff / time.Hour)
	minutes := int((diff % time.Hour) / time.Minute)

	return types.TimeRemaining{
		Hours:     hours,
		Minutes:   minutes,
		Formatted: fmt.Sprintf("%dh %dm", hours, minutes),
	}
}
