// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Task is a piece of homework with a deadline and an estimate in minutes.
type Task struct {
	ID            string     `json:"id" db:"id"`
	OwnerID       string     `json:"owner_id" db:"owner_id"`
	Name          string     `json:"name" db:"name"`
	Subject       string     `json:"subject" db:"subject"`
	Deadline      Date       `json:"deadline" db:"deadline"`
	EstimatedTime int        `json:"estimated_time" db:"estimated_time"`
	Status        TaskStatus `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

func (t Task) RecordID() string { return t.ID }

func (t Task) IsCompleted() bool { return t.Status == StatusCompleted }

// TaskDraft holds the user supplied fields of a task that does not exist yet.
type TaskDraft struct {
	Name          string
	Subject       string
	Deadline      Date
	EstimatedTime int
}

// TaskUpdate lists the fields that may change after creation.
// A nil field is left untouched.
type TaskUpdate struct {
	Name          *string
	Subject       *string
	Deadline      *Date
	EstimatedTime *int
	Status        *TaskStatus
}

func (u TaskUpdate) IsEmpty() bool {
	return u.Name == nil && u.Subject == nil && u.Deadline == nil &&
		u.EstimatedTime == nil && u.Status == nil
}

// Apply merges the set fields into t.
func (u TaskUpdate) Apply(t *Task) {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Subject != nil {
		t.Subject = *u.Subject
	}
	if u.Deadline != nil {
		t.Deadline = *u.Deadline
	}
	if u.EstimatedTime != nil {
		t.EstimatedTime = *u.EstimatedTime
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
}
