package services

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"studyplan/internal/models"
	"studyplan/internal/repositories"
	"studyplan/internal/urgency"
)

const examsCollection = "exams"

type ExamSettings struct {
	WeekStartsOn   time.Weekday
	DefaultMinutes int
}

func DefaultExamSettings() ExamSettings {
	return ExamSettings{WeekStartsOn: time.Monday, DefaultMinutes: models.DefaultExamMinutes}
}

type ExamCollection struct {
	repo     repositories.ExamRepository
	notifier Notifier
	settings ExamSettings
	snap     snapshot[models.Exam]
	now      func() time.Time
}

func NewExamCollection(repo repositories.ExamRepository, notifier Notifier, settings ExamSettings) *ExamCollection {
	if settings.DefaultMinutes <= 0 {
		settings.DefaultMinutes = models.DefaultExamMinutes
	}
	c := &ExamCollection{repo: repo, notifier: notifier, settings: settings, now: time.Now}
	c.snap.less = func(a, b models.Exam) bool { return a.Date.Before(b.Date) }
	return c
}

func (c *ExamCollection) SetOwner(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		c.snap.reset()
		return nil
	}
	return c.load(ctx, ownerID)
}

func (c *ExamCollection) Refresh(ctx context.Context) error {
	owner, _, ok := c.snap.current()
	if !ok {
		return ErrNoOwner
	}
	return c.load(ctx, owner)
}

func (c *ExamCollection) load(ctx context.Context, ownerID string) error {
	gen := c.snap.beginLoad(ownerID)
	exams, err := c.repo.List(ctx, ownerID)
	if err != nil {
		ferr := &FetchError{Collection: examsCollection, Err: err}
		if c.snap.failLoad(gen, ferr) {
			log.Printf("[exam][load][err] owner=%s: %v", ownerID, err)
			emit(ctx, c.notifier, ownerID, "exam.load", models.NotifyError, "Failed to load exams")
		}
		return ferr
	}
	if !c.snap.finishLoad(gen, exams) {
		log.Printf("[exam][load][stale] owner=%s", ownerID)
	}
	return nil
}

func (c *ExamCollection) State() State {
	s, _ := c.snap.status()
	return s
}

func (c *ExamCollection) Err() error {
	_, err := c.snap.status()
	return err
}

func (c *ExamCollection) Owner() string {
	owner, _, _ := c.snap.current()
	return owner
}

func (c *ExamCollection) WeekStartsOn() time.Weekday { return c.settings.WeekStartsOn }

// Create stores a new exam. A missing or non-positive revision budget falls
// back to the default instead of being rejected.
func (c *ExamCollection) Create(ctx context.Context, draft models.ExamDraft) ExamResult {
	owner, gen, ok := c.snap.current()
	if !ok {
		return ExamResult{Result: failed(ErrNoOwner)}
	}
	draft.Subject = strings.TrimSpace(draft.Subject)
	var verr error
	switch {
	case draft.Subject == "":
		verr = invalid("subject", "is required")
	case draft.Date.IsZero():
		verr = invalid("date", "is required")
	}
	if verr != nil {
		emit(ctx, c.notifier, owner, "exam.create", models.NotifyError, "Failed to create exam")
		return ExamResult{Result: failed(verr)}
	}
	if draft.EstimatedTime <= 0 {
		log.Printf("[exam][create][coerce] owner=%s estimated_time=%d -> %d", owner, draft.EstimatedTime, c.settings.DefaultMinutes)
		draft.EstimatedTime = c.settings.DefaultMinutes
	}

	exam, err := c.repo.Create(ctx, owner, draft)
	if err != nil {
		log.Printf("[exam][create][err] owner=%s: %v", owner, err)
		emit(ctx, c.notifier, owner, "exam.create", models.NotifyError, "Failed to create exam")
		return ExamResult{Result: failed(err)}
	}
	c.snap.add(gen, *exam)
	log.Printf("[exam][create][ok] owner=%s id=%s", owner, exam.ID)
	emit(ctx, c.notifier, owner, "exam.create", models.NotifySuccess, "Exam created successfully")
	return ExamResult{Result: succeeded(), Exam: exam}
}

func (c *ExamCollection) Update(ctx context.Context, id string, upd models.ExamUpdate) ExamResult {
	owner, gen, ok := c.snap.current()
	if !ok {
		return ExamResult{Result: failed(ErrNoOwner)}
	}
	fail := func(err error) ExamResult {
		log.Printf("[exam][update][err] owner=%s id=%s: %v", owner, id, err)
		emit(ctx, c.notifier, owner, "exam.update", models.NotifyError, "Failed to update exam")
		return ExamResult{Result: failed(err)}
	}

	current, found := c.snap.find(id)
	if !found {
		return fail(notFound(examsCollection, "update", id))
	}
	switch {
	case upd.IsEmpty():
		return fail(invalid("update", "no fields to change"))
	case upd.Subject != nil && strings.TrimSpace(*upd.Subject) == "":
		return fail(invalid("subject", "must not be empty"))
	case upd.Date != nil && upd.Date.IsZero():
		return fail(invalid("date", "must be a date"))
	}
	if upd.EstimatedTime != nil && *upd.EstimatedTime <= 0 {
		log.Printf("[exam][update][coerce] owner=%s id=%s estimated_time=%d -> %d", owner, id, *upd.EstimatedTime, c.settings.DefaultMinutes)
		minutes := c.settings.DefaultMinutes
		upd.EstimatedTime = &minutes
	}

	if err := c.repo.Update(ctx, id, upd); err != nil {
		return fail(err)
	}
	now := c.now().UTC()
	patched, _ := c.snap.patch(gen, id, func(e *models.Exam) {
		upd.Apply(e)
		e.UpdatedAt = now
	})
	if patched.ID == "" {
		patched = current
		upd.Apply(&patched)
	}
	log.Printf("[exam][update][ok] owner=%s id=%s", owner, id)
	emit(ctx, c.notifier, owner, "exam.update", models.NotifySuccess, "Exam updated successfully")
	return ExamResult{Result: succeeded(), Exam: &patched}
}

func (c *ExamCollection) Delete(ctx context.Context, id string) Result {
	owner, gen, ok := c.snap.current()
	if !ok {
		return failed(ErrNoOwner)
	}
	if _, found := c.snap.find(id); !found {
		emit(ctx, c.notifier, owner, "exam.delete", models.NotifyError, "Failed to delete exam")
		return failed(notFound(examsCollection, "delete", id))
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		log.Printf("[exam][delete][err] owner=%s id=%s: %v", owner, id, err)
		emit(ctx, c.notifier, owner, "exam.delete", models.NotifyError, "Failed to delete exam")
		return failed(err)
	}
	c.snap.remove(gen, id)
	log.Printf("[exam][delete][ok] owner=%s id=%s", owner, id)
	emit(ctx, c.notifier, owner, "exam.delete", models.NotifySuccess, "Exam deleted successfully")
	return succeeded()
}

func (c *ExamCollection) All() []models.Exam { return c.snap.list() }

func (c *ExamCollection) BySubject(subject string) []models.Exam {
	return c.snap.filter(func(e models.Exam) bool { return e.Subject == subject })
}

func (c *ExamCollection) Subjects() []string {
	return subjectsOf(c.snap.list(), func(e models.Exam) string { return e.Subject })
}

// Upcoming lists exams that are not past, today included.
func (c *ExamCollection) Upcoming(today models.Date) []models.Exam {
	return c.snap.filter(func(e models.Exam) bool { return !urgency.IsPast(e.Date, today) })
}

func (c *ExamCollection) Past(today models.Date) []models.Exam {
	return c.snap.filter(func(e models.Exam) bool { return urgency.IsPast(e.Date, today) })
}

// ThisWeek lists exams in the calendar week containing today.
func (c *ExamCollection) ThisWeek(today models.Date) []models.Exam {
	start := c.settings.WeekStartsOn
	return c.snap.filter(func(e models.Exam) bool { return urgency.IsThisWeek(e.Date, today, start) })
}

// Next is the soonest upcoming exam, derived again on every call.
func (c *ExamCollection) Next(today models.Date) (models.Exam, bool) {
	upcoming := c.Upcoming(today)
	if len(upcoming) == 0 {
		return models.Exam{}, false
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Date.Before(upcoming[j].Date)
	})
	return upcoming[0], true
}

func ClassifiedExams(exams []models.Exam, today models.Date) []ClassifiedExam {
	out := make([]ClassifiedExam, 0, len(exams))
	for _, e := range exams {
		out = append(out, ClassifiedExam{Exam: e, Urgency: urgency.ClassifyDate(e.Date, today)})
	}
	return out
}

func (c *ExamCollection) Classified(today models.Date) []ClassifiedExam {
	return ClassifiedExams(c.All(), today)
}
