package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"studyplan/internal/models"
	"studyplan/internal/repositories"
)

var createdAt = time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC)

type fakeTaskRepo struct {
	mu        sync.Mutex
	seq       int
	tasks     []models.Task
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	failIDs   map[string]bool
	calls     map[string]int
}

func newFakeTaskRepo(seed ...models.Task) *fakeTaskRepo {
	return &fakeTaskRepo{tasks: seed, calls: map[string]int{}, failIDs: map[string]bool{}}
}

func (r *fakeTaskRepo) called(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *fakeTaskRepo) Create(_ context.Context, ownerID string, draft models.TaskDraft) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["create"]++
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.seq++
	t := models.Task{
		ID:            fmt.Sprintf("t-%d", r.seq),
		OwnerID:       ownerID,
		Name:          draft.Name,
		Subject:       draft.Subject,
		Deadline:      draft.Deadline,
		EstimatedTime: draft.EstimatedTime,
		Status:        models.StatusPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	r.tasks = append(r.tasks, t)
	return &t, nil
}

func (r *fakeTaskRepo) List(_ context.Context, ownerID string) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["list"]++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []models.Task{}
	for _, t := range r.tasks {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func (r *fakeTaskRepo) ListPending(ctx context.Context, ownerID string) ([]models.Task, error) {
	all, err := r.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := []models.Task{}
	for _, t := range all {
		if !t.IsCompleted() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) index(id string) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id string) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return nil, &repositories.StoreError{Op: "find", Collection: "tasks", ID: id, Err: repositories.ErrNotFound}
	}
	t := r.tasks[i]
	return &t, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, id string, upd models.TaskUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["update"]++
	if r.updateErr != nil {
		return r.updateErr
	}
	if r.failIDs[id] {
		return fmt.Errorf("store unavailable for %s", id)
	}
	i := r.index(id)
	if i < 0 {
		return &repositories.StoreError{Op: "update", Collection: "tasks", ID: id, Err: repositories.ErrNotFound}
	}
	upd.Apply(&r.tasks[i])
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["delete"]++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	i := r.index(id)
	if i < 0 {
		return &repositories.StoreError{Op: "delete", Collection: "tasks", ID: id, Err: repositories.ErrNotFound}
	}
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	return nil
}

func (r *fakeTaskRepo) Complete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["complete"]++
	if r.updateErr != nil {
		return r.updateErr
	}
	i := r.index(id)
	if i < 0 {
		return &repositories.StoreError{Op: "complete", Collection: "tasks", ID: id, Err: repositories.ErrNotFound}
	}
	r.tasks[i].Status = models.StatusCompleted
	return nil
}

type fakeExamRepo struct {
	mu        sync.Mutex
	seq       int
	exams     []models.Exam
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	calls     map[string]int
}

func newFakeExamRepo(seed ...models.Exam) *fakeExamRepo {
	return &fakeExamRepo{exams: seed, calls: map[string]int{}}
}

func (r *fakeExamRepo) Create(_ context.Context, ownerID string, draft models.ExamDraft) (*models.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["create"]++
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.seq++
	e := models.Exam{
		ID:            fmt.Sprintf("e-%d", r.seq),
		OwnerID:       ownerID,
		Subject:       draft.Subject,
		Date:          draft.Date,
		EstimatedTime: draft.EstimatedTime,
		Notes:         draft.Notes,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	r.exams = append(r.exams, e)
	return &e, nil
}

func (r *fakeExamRepo) List(_ context.Context, ownerID string) ([]models.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["list"]++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []models.Exam{}
	for _, e := range r.exams {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeExamRepo) ListUpcoming(ctx context.Context, ownerID string, today models.Date) ([]models.Exam, error) {
	all, err := r.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := []models.Exam{}
	for _, e := range all {
		if !e.Date.Before(today) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeExamRepo) index(id string) int {
	for i := range r.exams {
		if r.exams[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *fakeExamRepo) FindByID(_ context.Context, id string) (*models.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return nil, &repositories.StoreError{Op: "find", Collection: "exams", ID: id, Err: repositories.ErrNotFound}
	}
	e := r.exams[i]
	return &e, nil
}

func (r *fakeExamRepo) Update(_ context.Context, id string, upd models.ExamUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["update"]++
	if r.updateErr != nil {
		return r.updateErr
	}
	i := r.index(id)
	if i < 0 {
		return &repositories.StoreError{Op: "update", Collection: "exams", ID: id, Err: repositories.ErrNotFound}
	}
	upd.Apply(&r.exams[i])
	return nil
}

func (r *fakeExamRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["delete"]++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	i := r.index(id)
	if i < 0 {
		return &repositories.StoreError{Op: "delete", Collection: "exams", ID: id, Err: repositories.ErrNotFound}
	}
	r.exams = append(r.exams[:i], r.exams[i+1:]...)
	return nil
}

type recorder struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *recorder) Notify(_ context.Context, _ string, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recorder) all() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.sent...)
}

func (r *recorder) last() models.Notification {
	all := r.all()
	if len(all) == 0 {
		return models.Notification{}
	}
	return all[len(all)-1]
}

func seedTask(id, owner, name, subject, deadline string, status models.TaskStatus) models.Task {
	return models.Task{
		ID:            id,
		OwnerID:       owner,
		Name:          name,
		Subject:       subject,
		Deadline:      models.MustParseDate(deadline),
		EstimatedTime: 60,
		Status:        status,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func seedExam(id, owner, subject, date string) models.Exam {
	return models.Exam{
		ID:            id,
		OwnerID:       owner,
		Subject:       subject,
		Date:          models.MustParseDate(date),
		EstimatedTime: models.DefaultExamMinutes,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}
