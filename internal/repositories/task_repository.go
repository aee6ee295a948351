package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"studyplan/internal/models"
)

type TaskRepository interface {
	Create(ctx context.Context, ownerID string, draft models.TaskDraft) (*models.Task, error)
	List(ctx context.Context, ownerID string) ([]models.Task, error)
	ListPending(ctx context.Context, ownerID string) ([]models.Task, error)
	FindByID(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, id string, upd models.TaskUpdate) error
	Delete(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
}

type taskRepository struct {
	db *sqlx.DB
	settings
}

func NewTaskRepository(db *sqlx.DB, opts ...Option) TaskRepository {
	return &taskRepository{db: db, settings: newSettings(opts)}
}

const taskColumns = `id, owner_id, name, subject, deadline, estimated_time, status,
       created_at, updated_at, completed_at`

func (r *taskRepository) Create(ctx context.Context, ownerID string, draft models.TaskDraft) (*models.Task, error) {
	now := r.timestamp()
	task := &models.Task{
		ID:            r.newID(),
		OwnerID:       ownerID,
		Name:          draft.Name,
		Subject:       draft.Subject,
		Deadline:      draft.Deadline,
		EstimatedTime: draft.EstimatedTime,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	query := `
		INSERT INTO tasks (
			id, owner_id, name, subject, deadline, estimated_time, status, created_at, updated_at
		)
		VALUES (:id, :owner_id, :name, :subject, :deadline, :estimated_time, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return nil, storeErr("create", tasksCollection, "", err)
	}
	return task, nil
}

func (r *taskRepository) List(ctx context.Context, ownerID string) ([]models.Task, error) {
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks
		WHERE owner_id = ?
		ORDER BY deadline ASC, created_at ASC`)
	tasks := []models.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, ownerID); err != nil {
		return nil, storeErr("list", tasksCollection, "", err)
	}
	return tasks, nil
}

func (r *taskRepository) ListPending(ctx context.Context, ownerID string) ([]models.Task, error) {
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks
		WHERE owner_id = ? AND status = ?
		ORDER BY deadline ASC, created_at ASC`)
	tasks := []models.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, ownerID, models.StatusPending); err != nil {
		return nil, storeErr("list pending", tasksCollection, "", err)
	}
	return tasks, nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)
	task := &models.Task{}
	if err := r.db.GetContext(ctx, task, query, id); err != nil {
		return nil, storeErr("find", tasksCollection, id, err)
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, upd models.TaskUpdate) error {
	now := r.timestamp()
	sets := []string{}
	args := []interface{}{}

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Subject != nil {
		sets = append(sets, "subject = ?")
		args = append(args, *upd.Subject)
	}
	if upd.Deadline != nil {
		sets = append(sets, "deadline = ?")
		args = append(args, *upd.Deadline)
	}
	if upd.EstimatedTime != nil {
		sets = append(sets, "estimated_time = ?")
		args = append(args, *upd.EstimatedTime)
	}
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
		// completed_at records the first completion only
		if *upd.Status == models.StatusCompleted {
			sets = append(sets, "completed_at = COALESCE(completed_at, ?)")
			args = append(args, now)
		}
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now, id)

	query := r.db.Rebind("UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	return r.execOne(ctx, "update", id, query, args...)
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM tasks WHERE id = ?`)
	return r.execOne(ctx, "delete", id, query, id)
}

func (r *taskRepository) Complete(ctx context.Context, id string) error {
	now := r.timestamp()
	query := r.db.Rebind(`UPDATE tasks SET status = ?, completed_at = COALESCE(completed_at, ?), updated_at = ? WHERE id = ?`)
	return r.execOne(ctx, "complete", id, query, models.StatusCompleted, now, now, id)
}

// execOne runs a statement that must touch exactly one row.
func (r *taskRepository) execOne(ctx context.Context, op, id, query string, args ...interface{}) error {
	return execOne(ctx, r.db, op, tasksCollection, id, query, args...)
}

func execOne(ctx context.Context, db *sqlx.DB, op, collection, id, query string, args ...interface{}) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return storeErr(op, collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, collection, id, err)
	}
	if n == 0 {
		return storeErr(op, collection, id, ErrNotFound)
	}
	return nil
}
