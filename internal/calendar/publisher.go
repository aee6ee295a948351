// Package calendar publishes exams to Google Calendar as all-day events.
package calendar

import (
	"context"
	"fmt"
	"log"

	gcal "google.golang.org/api/calendar/v3"

	"studyplan/internal/models"
	"studyplan/internal/urgency"
)

// ExamIDProperty is the private extended property linking an event to an exam.
const ExamIDProperty = "studyplan_exam_id"

// EventStore is the subset of the Calendar API the publisher needs.
type EventStore interface {
	FindByExamID(ctx context.Context, examID string) (*gcal.Event, error)
	Insert(ctx context.Context, ev *gcal.Event) (*gcal.Event, error)
	Patch(ctx context.Context, eventID string, ev *gcal.Event) (*gcal.Event, error)
}

// SyncReport summarises one publishing run.
type SyncReport struct {
	Created   int               `json:"created"`
	Updated   int               `json:"updated"`
	Unchanged int               `json:"unchanged"`
	Failed    map[string]string `json:"failed,omitempty"`
}

type Publisher struct {
	events EventStore
}

func NewPublisher(events EventStore) *Publisher {
	return &Publisher{events: events}
}

// ExamEvent converts an exam into an all-day event.
func ExamEvent(e models.Exam) *gcal.Event {
	desc := fmt.Sprintf("Revision budget: %s", urgency.FormatMinutes(e.EstimatedTime))
	if e.Notes != "" {
		desc += "\n\n" + e.Notes
	}
	return &gcal.Event{
		Summary:     "Exam: " + e.Subject,
		Description: desc,
		Start:       &gcal.EventDateTime{Date: e.Date.String()},
		End:         &gcal.EventDateTime{Date: e.Date.AddDays(1).String()},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{ExamIDProperty: e.ID},
		},
		Transparency: "transparent",
	}
}

func needsUpdate(existing, want *gcal.Event) bool {
	if existing.Summary != want.Summary || existing.Description != want.Description {
		return true
	}
	if existing.Start == nil || existing.End == nil {
		return true
	}
	return existing.Start.Date != want.Start.Date || existing.End.Date != want.End.Date
}

// Sync creates or patches one event per exam. Failures are per exam.
func (p *Publisher) Sync(ctx context.Context, exams []models.Exam) SyncReport {
	report := SyncReport{Failed: map[string]string{}}
	for _, exam := range exams {
		want := ExamEvent(exam)
		existing, err := p.events.FindByExamID(ctx, exam.ID)
		if err != nil {
			report.Failed[exam.ID] = err.Error()
			continue
		}
		switch {
		case existing == nil:
			_, err = p.events.Insert(ctx, want)
			if err == nil {
				report.Created++
			}
		case needsUpdate(existing, want):
			_, err = p.events.Patch(ctx, existing.Id, want)
			if err == nil {
				report.Updated++
			}
		default:
			report.Unchanged++
		}
		if err != nil {
			log.Printf("[calendar][sync][err] exam=%s: %v", exam.ID, err)
			report.Failed[exam.ID] = err.Error()
		}
	}
	log.Printf("[calendar][sync] created=%d updated=%d unchanged=%d failed=%d",
		report.Created, report.Updated, report.Unchanged, len(report.Failed))
	return report
}

// apiEvents adapts *gcal.Service to EventStore for one calendar.
type apiEvents struct {
	srv        *gcal.Service
	calendarID string
}

func NewEventStore(srv *gcal.Service, calendarID string) EventStore {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &apiEvents{srv: srv, calendarID: calendarID}
}

func (a *apiEvents) FindByExamID(ctx context.Context, examID string) (*gcal.Event, error) {
	events, err := a.srv.Events.List(a.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", ExamIDProperty, examID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search calendar: %w", err)
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

func (a *apiEvents) Insert(ctx context.Context, ev *gcal.Event) (*gcal.Event, error) {
	return a.srv.Events.Insert(a.calendarID, ev).Context(ctx).Do()
}

func (a *apiEvents) Patch(ctx context.Context, eventID string, ev *gcal.Event) (*gcal.Event, error) {
	return a.srv.Events.Patch(a.calendarID, eventID, ev).Context(ctx).Do()
}
