package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyplan/internal/db"
	"studyplan/internal/models"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err, "open db")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func TestTaskCreateThenList(t *testing.T) {
	conn := newTestDB(t)
	clock := &fakeClock{now: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}
	repo := NewTaskRepository(conn, WithClock(clock.Now))
	ctx := context.Background()

	draft := models.TaskDraft{
		Name:          "Lab report",
		Subject:       "Chemistry",
		Deadline:      models.MustParseDate("2025-01-14"),
		EstimatedTime: 90,
	}
	created, err := repo.Create(ctx, "owner-1", draft)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.True(t, created.CreatedAt.Equal(clock.now))

	tasks, err := repo.List(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	got := tasks[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "owner-1", got.OwnerID)
	assert.Equal(t, draft.Name, got.Name)
	assert.Equal(t, draft.Subject, got.Subject)
	assert.True(t, draft.Deadline.Equal(got.Deadline))
	assert.Equal(t, draft.EstimatedTime, got.EstimatedTime)
	assert.True(t, got.CreatedAt.Equal(clock.now))
	assert.Nil(t, got.CompletedAt)
}

func TestTaskListIsOwnerScopedAndOrderedByDeadline(t *testing.T) {
	conn := newTestDB(t)
	repo := NewTaskRepository(conn)
	ctx := context.Background()

	for _, d := range []string{"2025-03-01", "2025-01-15", "2025-02-01"} {
		_, err := repo.Create(ctx, "owner-1", models.TaskDraft{Name: d, Deadline: models.MustParseDate(d), EstimatedTime: 30})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, "owner-2", models.TaskDraft{Name: "other", Deadline: models.MustParseDate("2025-01-01"), EstimatedTime: 30})
	require.NoError(t, err)

	tasks, err := repo.List(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "2025-01-15", tasks[0].Deadline.String())
	assert.Equal(t, "2025-02-01", tasks[1].Deadline.String())
	assert.Equal(t, "2025-03-01", tasks[2].Deadline.String())

	empty, err := repo.List(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTaskUpdateAndComplete(t *testing.T) {
	conn := newTestDB(t)
	clock := &fakeClock{now: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}
	repo := NewTaskRepository(conn, WithClock(clock.Now))
	ctx := context.Background()

	created, err := repo.Create(ctx, "owner-1", models.TaskDraft{Name: "Essay", Deadline: models.MustParseDate("2025-01-20"), EstimatedTime: 60})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	name := "Essay v2"
	require.NoError(t, repo.Update(ctx, created.ID, models.TaskUpdate{Name: &name}))

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Essay v2", got.Name)
	assert.True(t, got.UpdatedAt.Equal(clock.now))
	assert.True(t, got.CreatedAt.Before(got.UpdatedAt))

	clock.Advance(time.Hour)
	require.NoError(t, repo.Complete(ctx, created.ID))
	got, err = repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(clock.now))

	pending, err := repo.ListPending(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestTaskCompletedAtKeepsFirstCompletion(t *testing.T) {
	conn := newTestDB(t)
	clock := &fakeClock{now: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}
	repo := NewTaskRepository(conn, WithClock(clock.Now))
	ctx := context.Background()

	created, err := repo.Create(ctx, "owner-1", models.TaskDraft{Name: "Essay", Deadline: models.MustParseDate("2025-01-20"), EstimatedTime: 60})
	require.NoError(t, err)

	first := clock.now
	require.NoError(t, repo.Complete(ctx, created.ID))

	clock.Advance(48 * time.Hour)
	require.NoError(t, repo.Complete(ctx, created.ID))
	status := models.StatusCompleted
	require.NoError(t, repo.Update(ctx, created.ID, models.TaskUpdate{Status: &status}))

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(first), "completed_at = %s", got.CompletedAt)
	assert.True(t, got.UpdatedAt.Equal(clock.now))
}

func TestTaskMissingIDIsNotFound(t *testing.T) {
	conn := newTestDB(t)
	repo := NewTaskRepository(conn)
	ctx := context.Background()

	name := "ghost"
	err := repo.Update(ctx, "missing", models.TaskUpdate{Name: &name})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "update", storeErr.Op)
	assert.Equal(t, "missing", storeErr.ID)

	assert.True(t, IsNotFound(repo.Delete(ctx, "missing")))
	assert.True(t, IsNotFound(repo.Complete(ctx, "missing")))
	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, IsNotFound(err))

	tasks, err := repo.List(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, tasks, "update must never insert")
}

func TestTaskDelete(t *testing.T) {
	conn := newTestDB(t)
	repo := NewTaskRepository(conn, WithIDGenerator(sequentialIDs("task")))
	ctx := context.Background()

	created, err := repo.Create(ctx, "owner-1", models.TaskDraft{Name: "Read", Deadline: models.MustParseDate("2025-01-20"), EstimatedTime: 20})
	require.NoError(t, err)
	assert.Equal(t, "task-1", created.ID)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.True(t, IsNotFound(repo.Delete(ctx, created.ID)), "second delete fails")
}

func TestExamRepository(t *testing.T) {
	conn := newTestDB(t)
	repo := NewExamRepository(conn)
	ctx := context.Background()

	for _, d := range []string{"2025-02-10", "2025-01-05", "2025-01-20"} {
		_, err := repo.Create(ctx, "owner-1", models.ExamDraft{Subject: "Physics " + d, Date: models.MustParseDate(d), EstimatedTime: 240})
		require.NoError(t, err)
	}

	exams, err := repo.List(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, exams, 3)
	assert.Equal(t, "2025-01-05", exams[0].Date.String())
	assert.Equal(t, "2025-02-10", exams[2].Date.String())

	upcoming, err := repo.ListUpcoming(ctx, "owner-1", models.MustParseDate("2025-01-20"))
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "2025-01-20", upcoming[0].Date.String())

	notes := "bring a calculator"
	require.NoError(t, repo.Update(ctx, exams[0].ID, models.ExamUpdate{Notes: &notes}))
	got, err := repo.FindByID(ctx, exams[0].ID)
	require.NoError(t, err)
	assert.Equal(t, notes, got.Notes)
	assert.Equal(t, exams[0].Subject, got.Subject)

	require.NoError(t, repo.Delete(ctx, exams[0].ID))
	assert.True(t, IsNotFound(repo.Delete(ctx, exams[0].ID)))
	assert.True(t, IsNotFound(repo.Update(ctx, "missing", models.ExamUpdate{Notes: &notes})))
}
