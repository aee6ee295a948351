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

const tasksCollection = "tasks"

// TaskCollection mirrors one owner's tasks and applies mutations to the
// local snapshot only after the store accepted them.
type TaskCollection struct {
	repo     repositories.TaskRepository
	notifier Notifier
	snap     snapshot[models.Task]
	now      func() time.Time
}

func NewTaskCollection(repo repositories.TaskRepository, notifier Notifier) *TaskCollection {
	c := &TaskCollection{repo: repo, notifier: notifier, now: time.Now}
	c.snap.less = func(a, b models.Task) bool { return a.Deadline.Before(b.Deadline) }
	return c
}

// SetOwner discards the snapshot and loads the owner's tasks. An empty owner
// only clears the snapshot.
func (c *TaskCollection) SetOwner(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		c.snap.reset()
		return nil
	}
	return c.load(ctx, ownerID)
}

// Refresh reloads the current owner's tasks.
func (c *TaskCollection) Refresh(ctx context.Context) error {
	owner, _, ok := c.snap.current()
	if !ok {
		return ErrNoOwner
	}
	return c.load(ctx, owner)
}

func (c *TaskCollection) load(ctx context.Context, ownerID string) error {
	gen := c.snap.beginLoad(ownerID)
	tasks, err := c.repo.List(ctx, ownerID)
	if err != nil {
		ferr := &FetchError{Collection: tasksCollection, Err: err}
		if c.snap.failLoad(gen, ferr) {
			log.Printf("[task][load][err] owner=%s: %v", ownerID, err)
			emit(ctx, c.notifier, ownerID, "task.load", models.NotifyError, "Failed to load tasks")
		}
		return ferr
	}
	if !c.snap.finishLoad(gen, tasks) {
		log.Printf("[task][load][stale] owner=%s", ownerID)
	}
	return nil
}

func (c *TaskCollection) State() State {
	s, _ := c.snap.status()
	return s
}

// Err is the last fetch error, nil unless State is StateError.
func (c *TaskCollection) Err() error {
	_, err := c.snap.status()
	return err
}

func (c *TaskCollection) Owner() string {
	owner, _, _ := c.snap.current()
	return owner
}

func validateTaskDraft(d models.TaskDraft) error {
	if strings.TrimSpace(d.Name) == "" {
		return invalid("name", "is required")
	}
	if d.Deadline.IsZero() {
		return invalid("deadline", "is required")
	}
	if d.EstimatedTime <= 0 {
		return invalid("estimated_time", "must be a positive number of minutes")
	}
	return nil
}

func (c *TaskCollection) Create(ctx context.Context, draft models.TaskDraft) TaskResult {
	owner, gen, ok := c.snap.current()
	if !ok {
		return TaskResult{Result: failed(ErrNoOwner)}
	}
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Subject = strings.TrimSpace(draft.Subject)
	if err := validateTaskDraft(draft); err != nil {
		emit(ctx, c.notifier, owner, "task.create", models.NotifyError, "Failed to create task")
		return TaskResult{Result: failed(err)}
	}

	task, err := c.repo.Create(ctx, owner, draft)
	if err != nil {
		log.Printf("[task][create][err] owner=%s: %v", owner, err)
		emit(ctx, c.notifier, owner, "task.create", models.NotifyError, "Failed to create task")
		return TaskResult{Result: failed(err)}
	}
	c.snap.add(gen, *task)
	log.Printf("[task][create][ok] owner=%s id=%s", owner, task.ID)
	emit(ctx, c.notifier, owner, "task.create", models.NotifySuccess, "Task created successfully")
	return TaskResult{Result: succeeded(), Task: task}
}

func (c *TaskCollection) validateUpdate(current models.Task, upd models.TaskUpdate) error {
	if upd.IsEmpty() {
		return invalid("update", "no fields to change")
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if upd.Deadline != nil && upd.Deadline.IsZero() {
		return invalid("deadline", "must be a date")
	}
	if upd.EstimatedTime != nil && *upd.EstimatedTime <= 0 {
		return invalid("estimated_time", "must be a positive number of minutes")
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return invalid("status", "must be pending or completed")
		}
		if !canTransition(current.Status, *upd.Status) {
			return invalid("status", "a completed task cannot be reopened")
		}
	}
	return nil
}

// Update merges upd into the task both in the store and in the snapshot.
func (c *TaskCollection) Update(ctx context.Context, id string, upd models.TaskUpdate) TaskResult {
	return c.update(ctx, "update", id, upd)
}

func (c *TaskCollection) update(ctx context.Context, action, id string, upd models.TaskUpdate) TaskResult {
	op := "task." + action
	owner, gen, ok := c.snap.current()
	if !ok {
		return TaskResult{Result: failed(ErrNoOwner)}
	}
	fail := func(err error) TaskResult {
		log.Printf("[task][%s][err] owner=%s id=%s: %v", action, owner, id, err)
		emit(ctx, c.notifier, owner, op, models.NotifyError, "Failed to "+action+" task")
		return TaskResult{Result: failed(err)}
	}

	current, found := c.snap.find(id)
	if !found {
		return fail(notFound(tasksCollection, action, id))
	}
	if err := c.validateUpdate(current, upd); err != nil {
		return fail(err)
	}

	msg := "Task updated successfully"
	if action == "complete" {
		msg = "Task marked as completed"
	}
	if completesOnly(upd) && current.IsCompleted() {
		// already completed: nothing to write, the first completed_at stays
		log.Printf("[task][%s][noop] owner=%s id=%s already completed", action, owner, id)
		emit(ctx, c.notifier, owner, op, models.NotifySuccess, msg)
		return TaskResult{Result: succeeded(), Task: &current}
	}

	var err error
	if completesOnly(upd) {
		err = c.repo.Complete(ctx, id)
	} else {
		err = c.repo.Update(ctx, id, upd)
	}
	if err != nil {
		return fail(err)
	}

	now := c.now().UTC()
	patched, _ := c.snap.patch(gen, id, func(t *models.Task) {
		wasCompleted := t.IsCompleted()
		upd.Apply(t)
		t.UpdatedAt = now
		if t.IsCompleted() && !wasCompleted {
			t.CompletedAt = &now
		}
	})
	if patched.ID == "" {
		patched = current
		upd.Apply(&patched)
	}
	log.Printf("[task][%s][ok] owner=%s id=%s", action, owner, id)
	emit(ctx, c.notifier, owner, op, models.NotifySuccess, msg)
	return TaskResult{Result: succeeded(), Task: &patched}
}

// completesOnly reports whether upd does nothing but set status completed.
func completesOnly(upd models.TaskUpdate) bool {
	return upd.Status != nil && *upd.Status == models.StatusCompleted &&
		upd.Name == nil && upd.Subject == nil && upd.Deadline == nil && upd.EstimatedTime == nil
}

// Complete is Update with status completed.
func (c *TaskCollection) Complete(ctx context.Context, id string) TaskResult {
	status := models.StatusCompleted
	return c.update(ctx, "complete", id, models.TaskUpdate{Status: &status})
}

func (c *TaskCollection) Delete(ctx context.Context, id string) Result {
	owner, gen, ok := c.snap.current()
	if !ok {
		return failed(ErrNoOwner)
	}
	if _, found := c.snap.find(id); !found {
		err := notFound(tasksCollection, "delete", id)
		emit(ctx, c.notifier, owner, "task.delete", models.NotifyError, "Failed to delete task")
		return failed(err)
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		log.Printf("[task][delete][err] owner=%s id=%s: %v", owner, id, err)
		emit(ctx, c.notifier, owner, "task.delete", models.NotifyError, "Failed to delete task")
		return failed(err)
	}
	c.snap.remove(gen, id)
	log.Printf("[task][delete][ok] owner=%s id=%s", owner, id)
	emit(ctx, c.notifier, owner, "task.delete", models.NotifySuccess, "Task deleted successfully")
	return succeeded()
}

// BulkUpdateStatus issues one independent update per id. Nothing is rolled
// back when some of them fail; a single summary notification is emitted.
func (c *TaskCollection) BulkUpdateStatus(ctx context.Context, ids []string, status models.TaskStatus) BulkResult {
	owner, gen, ok := c.snap.current()
	if !ok {
		return BulkResult{Result: failed(ErrNoOwner), Updated: []string{}}
	}
	res := BulkResult{Updated: []string{}, Failed: map[string]string{}}
	if !status.Valid() {
		err := invalid("status", "must be pending or completed")
		emit(ctx, c.notifier, owner, "task.bulk_status", models.NotifyError, "Failed to update tasks")
		res.Result = failed(err)
		return res
	}

	now := c.now().UTC()
	for _, id := range ids {
		current, found := c.snap.find(id)
		if !found {
			res.Failed[id] = notFound(tasksCollection, "update", id).Error()
			continue
		}
		if !canTransition(current.Status, status) {
			res.Failed[id] = invalid("status", "a completed task cannot be reopened").Error()
			continue
		}
		if current.Status == status {
			res.Updated = append(res.Updated, id)
			continue
		}
		upd := models.TaskUpdate{Status: &status}
		if err := c.repo.Update(ctx, id, upd); err != nil {
			log.Printf("[task][bulk_status][err] owner=%s id=%s: %v", owner, id, err)
			res.Failed[id] = err.Error()
			continue
		}
		c.snap.patch(gen, id, func(t *models.Task) {
			wasCompleted := t.IsCompleted()
			upd.Apply(t)
			t.UpdatedAt = now
			if t.IsCompleted() && !wasCompleted {
				t.CompletedAt = &now
			}
		})
		res.Updated = append(res.Updated, id)
	}

	log.Printf("[task][bulk_status][done] owner=%s updated=%d failed=%d", owner, len(res.Updated), len(res.Failed))
	if len(res.Failed) == 0 {
		res.Result = succeeded()
		emit(ctx, c.notifier, owner, "task.bulk_status", models.NotifySuccess, "Tasks updated successfully")
		return res
	}
	res.Result = Result{Success: false, Error: "some tasks could not be updated"}
	emit(ctx, c.notifier, owner, "task.bulk_status", models.NotifyError, "Failed to update some tasks")
	return res
}

// All returns the snapshot in store order (deadline ascending).
func (c *TaskCollection) All() []models.Task { return c.snap.list() }

func (c *TaskCollection) Pending() []models.Task {
	return c.snap.filter(func(t models.Task) bool { return !t.IsCompleted() })
}

func (c *TaskCollection) Completed() []models.Task {
	return c.snap.filter(func(t models.Task) bool { return t.IsCompleted() })
}

func (c *TaskCollection) BySubject(subject string) []models.Task {
	return c.snap.filter(func(t models.Task) bool { return t.Subject == subject })
}

// Subjects lists the distinct non-empty subjects, sorted.
func (c *TaskCollection) Subjects() []string {
	return subjectsOf(c.snap.list(), func(t models.Task) string { return t.Subject })
}

func (c *TaskCollection) Overdue(today models.Date) []models.Task {
	return c.snap.filter(func(t models.Task) bool {
		return !t.IsCompleted() && urgency.IsOverdue(t.Deadline, today)
	})
}

// DueSoon lists pending tasks due from today up to three days out.
func (c *TaskCollection) DueSoon(today models.Date) []models.Task {
	return c.snap.filter(func(t models.Task) bool {
		return !t.IsCompleted() && urgency.IsDeadlineApproaching(t.Deadline, today)
	})
}

// Classified pairs the given tasks with their urgency.
func Classified(tasks []models.Task, today models.Date) []ClassifiedTask {
	out := make([]ClassifiedTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ClassifiedTask{Task: t, Urgency: urgency.ForTask(t, today)})
	}
	return out
}

func (c *TaskCollection) Classified(today models.Date) []ClassifiedTask {
	return Classified(c.All(), today)
}

func subjectsOf[R any](items []R, subject func(R) string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, item := range items {
		s := subject(item)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func notFound(collection, op, id string) error {
	return &repositories.StoreError{Op: op, Collection: collection, ID: id, Err: repositories.ErrNotFound}
}
