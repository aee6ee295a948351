package models

import "time"

type SessionType string

const (
	SessionHomework     SessionType = "homework"
	SessionExamRevision SessionType = "exam_revision"
)

// Session is one planned block of study on a given day.
type Session struct {
	Type     SessionType `json:"type"`
	Title    string      `json:"title"`
	Subject  string      `json:"subject"`
	Duration int         `json:"duration"`
	Status   string      `json:"status,omitempty"`
}

type DaySchedule struct {
	Sessions []Session `json:"sessions"`
}

// Schedule maps a "2006-01-02" date to the sessions planned for it.
// It is produced outside this module and only exported here.
type Schedule map[string]DaySchedule

type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyError   NotificationLevel = "error"
)

// Notification is the short, transient feedback emitted after a user action.
type Notification struct {
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	Operation string            `json:"operation"`
	CreatedAt time.Time         `json:"created_at"`
}
