package urgency

import (
	"fmt"
	"strings"
	"time"

	"studyplan/internal/models"
)

// The calendar week helpers below are unrelated to the rolling seven day
// window of the Upcoming tier.

// WeekStart returns the first day of the calendar week containing d.
func WeekStart(d models.Date, startsOn time.Weekday) models.Date {
	offset := (int(d.Weekday()) - int(startsOn) + 7) % 7
	return d.AddDays(-offset)
}

// WeekEnd returns the last day of the calendar week containing d.
func WeekEnd(d models.Date, startsOn time.Weekday) models.Date {
	return WeekStart(d, startsOn).AddDays(6)
}

func IsThisWeek(date, today models.Date, startsOn time.Weekday) bool {
	start := WeekStart(today, startsOn)
	end := start.AddDays(6)
	return !date.Before(start) && !date.After(end)
}

// WeekDates lists the seven days of the week containing d.
func WeekDates(d models.Date, startsOn time.Weekday) []models.Date {
	start := WeekStart(d, startsOn)
	out := make([]models.Date, 7)
	for i := range out {
		out[i] = start.AddDays(i)
	}
	return out
}

// ParseWeekday accepts English day names ("monday", "Mon").
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Monday, fmt.Errorf("unknown weekday %q", s)
}

// RelativeTime describes date relative to today ("Tomorrow", "in 3 days", "2 weeks ago").
func RelativeTime(date, today models.Date) string {
	days := date.DaysSince(today)
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days > 1 && days <= 7:
		return fmt.Sprintf("in %d days", days)
	case days > 7 && days <= 14:
		return fmt.Sprintf("in %d week", days/7)
	case days > 14:
		return fmt.Sprintf("in %d weeks", days/7)
	case days < -1 && days >= -7:
		return fmt.Sprintf("%d days ago", -days)
	}
	return fmt.Sprintf("%d weeks ago", -days/7)
}

// FormatMinutes renders a duration in minutes as "45m", "2h" or "1h 30m".
func FormatMinutes(minutes int) string {
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}
