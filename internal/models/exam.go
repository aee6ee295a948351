package models

import "time"

// DefaultExamMinutes is the revision budget used when none (or garbage) is given.
const DefaultExamMinutes = 240

// Exam is a dated exam with a total revision budget in minutes.
// It has no status: an exam is past purely by date.
type Exam struct {
	ID            string    `json:"id" db:"id"`
	OwnerID       string    `json:"owner_id" db:"owner_id"`
	Subject       string    `json:"subject" db:"subject"`
	Date          Date      `json:"date" db:"exam_date"`
	EstimatedTime int       `json:"estimated_time" db:"estimated_time"`
	Notes         string    `json:"notes" db:"notes"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

func (e Exam) RecordID() string { return e.ID }

type ExamDraft struct {
	Subject       string
	Date          Date
	EstimatedTime int
	Notes         string
}

type ExamUpdate struct {
	Subject       *string
	Date          *Date
	EstimatedTime *int
	Notes         *string
}

func (u ExamUpdate) IsEmpty() bool {
	return u.Subject == nil && u.Date == nil && u.EstimatedTime == nil && u.Notes == nil
}

func (u ExamUpdate) Apply(e *Exam) {
	if u.Subject != nil {
		e.Subject = *u.Subject
	}
	if u.Date != nil {
		e.Date = *u.Date
	}
	if u.EstimatedTime != nil {
		e.EstimatedTime = *u.EstimatedTime
	}
	if u.Notes != nil {
		e.Notes = *u.Notes
	}
}
