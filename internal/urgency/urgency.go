// Package urgency classifies how close a deadline is relative to a given day.
//
// Every function here is pure: "today" is always passed in, so callers decide
// which clock and time zone define the current day.
package urgency

import (
	"fmt"
	"time"

	"studyplan/internal/models"
)

type Level int

// Levels are declared in urgency order; the numeric value is the rank.
const (
	Overdue Level = iota
	Critical
	Urgent
	Soon
	Upcoming
	Future
)

var levelNames = [...]string{"overdue", "critical", "urgent", "soon", "upcoming", "future"}

var levelColors = [...]string{"red", "red", "orange", "yellow", "blue", "gray"}

func (l Level) String() string {
	if l < Overdue || l > Future {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

func (l Level) Rank() int { return int(l) }

// Color is the badge colour name used by the dashboard.
func (l Level) Color() string {
	if l < Overdue || l > Future {
		return "gray"
	}
	return levelColors[l]
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseLevel is the inverse of Level.String.
func ParseLevel(s string) (Level, bool) {
	for i, name := range levelNames {
		if name == s {
			return Level(i), true
		}
	}
	return 0, false
}

// Classification is the derived urgency of one deadline.
type Classification struct {
	Level     Level  `json:"level"`
	Label     string `json:"label"`
	Rank      int    `json:"rank"`
	Color     string `json:"color"`
	DaysUntil int    `json:"days_until"`
	Completed bool   `json:"completed,omitempty"`
}

// DaysUntil counts calendar days from today to deadline; negative when past.
// A deadline 23 hours away but on the next calendar day is 1 day away.
func DaysUntil(deadline, today time.Time) int {
	return models.DateOf(deadline).DaysSince(models.DateOf(today))
}

// Classify maps a deadline to its urgency tier.
func Classify(deadline, today time.Time) Classification {
	days := DaysUntil(deadline, today)
	level := levelFor(days)

	var label string
	switch level {
	case Overdue:
		label = "Overdue"
	case Critical:
		label = "Due today"
	case Urgent:
		label = "Due tomorrow"
	case Soon:
		label = fmt.Sprintf("%d days left", days)
	case Upcoming:
		label = "This week"
	default:
		label = deadline.Format("Jan 2")
	}

	return Classification{
		Level:     level,
		Label:     label,
		Rank:      level.Rank(),
		Color:     level.Color(),
		DaysUntil: days,
	}
}

func levelFor(days int) Level {
	switch {
	case days < 0:
		return Overdue
	case days == 0:
		return Critical
	case days == 1:
		return Urgent
	case days <= 3:
		return Soon
	case days <= 7:
		return Upcoming
	}
	return Future
}

// ClassifyDate is Classify for calendar dates.
func ClassifyDate(deadline, today models.Date) Classification {
	return Classify(deadline.Time(), today.Time())
}

// ForTask layers the completed override on top of the deadline classification.
func ForTask(task models.Task, today models.Date) Classification {
	c := ClassifyDate(task.Deadline, today)
	if task.IsCompleted() {
		c.Label = "Completed"
		c.Color = "green"
		c.Completed = true
	}
	return c
}

// Less orders a before b when a is more urgent.
func Less(a, b Classification) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	return a.DaysUntil < b.DaysUntil
}

// IsPast reports whether date is strictly before today.
func IsPast(date, today models.Date) bool {
	return date.Before(today)
}

func IsOverdue(deadline, today models.Date) bool {
	return deadline.DaysSince(today) < 0
}

// IsDeadlineApproaching is true for deadlines due today up to three days out.
func IsDeadlineApproaching(deadline, today models.Date) bool {
	days := deadline.DaysSince(today)
	return days >= 0 && days <= 3
}
