package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyplan/internal/models"
	"studyplan/internal/repositories"
	"studyplan/internal/urgency"
)

var today = models.MustParseDate("2025-01-10")

func loadedTasks(t *testing.T, repo *fakeTaskRepo) (*TaskCollection, *recorder) {
	t.Helper()
	rec := &recorder{}
	c := NewTaskCollection(repo, rec)
	require.NoError(t, c.SetOwner(context.Background(), "owner-1"))
	require.Equal(t, StateReady, c.State())
	return c, rec
}

func TestTaskCollectionStartsUninitialized(t *testing.T) {
	c := NewTaskCollection(newFakeTaskRepo(), nil)
	assert.Equal(t, StateUninitialized, c.State())
	assert.Empty(t, c.All())

	res := c.Create(context.Background(), models.TaskDraft{Name: "x", Deadline: today, EstimatedTime: 10})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrNoOwner)
	assert.Error(t, c.Refresh(context.Background()))
}

func TestTaskCreatePatchesSnapshot(t *testing.T) {
	repo := newFakeTaskRepo()
	c, rec := loadedTasks(t, repo)

	draft := models.TaskDraft{Name: " Lab report ", Subject: "Chemistry", Deadline: models.MustParseDate("2025-01-14"), EstimatedTime: 90}
	res := c.Create(context.Background(), draft)
	require.True(t, res.Success, res.Error)
	require.NotNil(t, res.Task)
	assert.Equal(t, "Lab report", res.Task.Name)
	assert.Equal(t, "owner-1", res.Task.OwnerID)

	all := c.All()
	require.Len(t, all, 1)
	assert.Equal(t, res.Task.ID, all[0].ID)
	assert.Equal(t, 1, repo.called("list"), "no refetch after create")

	sent := rec.all()
	require.Len(t, sent, 1)
	assert.Equal(t, models.NotifySuccess, sent[0].Level)
	assert.Equal(t, "Task created successfully", sent[0].Message)
}

func TestTaskCreateRejectsNonPositiveEstimate(t *testing.T) {
	repo := newFakeTaskRepo()
	c, rec := loadedTasks(t, repo)

	res := c.Create(context.Background(), models.TaskDraft{Name: "Essay", Deadline: today, EstimatedTime: 0})
	assert.False(t, res.Success)
	assert.True(t, IsValidation(res.Err))
	assert.Equal(t, 0, repo.called("create"))
	assert.Empty(t, c.All())
	require.Len(t, rec.all(), 1)
	assert.Equal(t, "Failed to create task", rec.last().Message)
}

func TestTaskCreateFailureLeavesSnapshotUntouched(t *testing.T) {
	repo := newFakeTaskRepo(seedTask("t-a", "owner-1", "A", "Math", "2025-01-12", models.StatusPending))
	c, rec := loadedTasks(t, repo)
	repo.createErr = errors.New("network down")

	before := c.All()
	res := c.Create(context.Background(), models.TaskDraft{Name: "B", Deadline: today, EstimatedTime: 30})
	assert.False(t, res.Success)
	assert.Equal(t, "network down", res.Error)
	assert.Equal(t, before, c.All())
	assert.Equal(t, models.NotifyError, rec.last().Level)
}

func TestTaskCompleteIsVisibleWithoutRefetch(t *testing.T) {
	repo := newFakeTaskRepo(seedTask("t-a", "owner-1", "A", "Math", "2025-01-12", models.StatusPending))
	c, rec := loadedTasks(t, repo)

	res := c.Complete(context.Background(), "t-a")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, repo.called("complete"))
	assert.Equal(t, 1, repo.called("list"))

	got := c.All()[0]
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, "Task marked as completed", rec.last().Message)
	assert.Len(t, c.Completed(), 1)
	assert.Empty(t, c.Pending())
}

func TestTaskCompleteTwiceSkipsStore(t *testing.T) {
	repo := newFakeTaskRepo(seedTask("t-a", "owner-1", "A", "Math", "2025-01-12", models.StatusPending))
	c, rec := loadedTasks(t, repo)

	require.True(t, c.Complete(context.Background(), "t-a").Success)
	first := c.All()[0]
	require.NotNil(t, first.CompletedAt)

	res := c.Complete(context.Background(), "t-a")
	require.True(t, res.Success, res.Error)
	status := models.StatusCompleted
	res = c.Update(context.Background(), "t-a", models.TaskUpdate{Status: &status})
	require.True(t, res.Success, res.Error)

	assert.Equal(t, 1, repo.called("complete"))
	assert.Equal(t, 0, repo.called("update"))
	assert.Equal(t, first, c.All()[0])
	assert.Equal(t, first, *res.Task)
	assert.Len(t, rec.all(), 3, "every call still reports once")
	assert.Equal(t, models.NotifySuccess, rec.last().Level)
}

func TestBulkUpdateStatusSkipsTasksAlreadyInStatus(t *testing.T) {
	repo := newFakeTaskRepo(
		seedTask("t-a", "owner-1", "A", "Math", "2025-01-12", models.StatusPending),
		seedTask("t-b", "owner-1", "B", "Math", "2025-01-13", models.StatusCompleted),
	)
	c, rec := loadedTasks(t, repo)
	doneB := c.All()[1]

	res := c.BulkUpdateStatus(context.Background(), []string{"t-a", "t-a", "t-b"}, models.StatusCompleted)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"t-a", "t-a", "t-b"}, res.Updated)
	assert.Equal(t, 1, repo.called("update"), "only t-a changes status")
	assert.Equal(t, doneB, c.All()[1])
	assert.Len(t, rec.all(), 1)
}

func TestTaskUpdateStatusToCompleted(t *testing.T) {
	repo := newFakeTaskRepo(seedTask("t-a", "owner-1", "A", "Math", "2025-01-12", models.StatusPending))
	c, _ := loadedTasks(t, repo)

	status := models.StatusCompleted
	name := "A (final)"
	res := c.Update(context.Background(), "t-a", models.TaskUpdate{Status: &status, Name: &name})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, repo.called("update"))

	got := c.All()[0]
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "A (final)", got.Name)
	assert.Equal(t, "Math", got.Subject, "fields not in the update are kept")
}

func TestTaskCompletedCannotBeReopened(t *testing.T) {
	repo := newFakeTaskRepo(seedTask("t-a", "owner-1", "A", "Math", "2025-01-12", models.StatusCompleted))
	c, rec := loadedTasks(t, repo)

	pending := models.StatusPending
	res := c.Update(context.Background(), "t-a", models.TaskUpdate{Status: &pending})
	assert.False(t, res.Success)
	assert.True(t, IsValidation(res.Err))
	assert.Equal(t, 0, repo.called("update"))
	assert.Equal(t, models.StatusCompleted, c.All()[0].Status)
	assert.Equal(t, "Failed to update task", rec.last().Message)
}

func TestTaskUpdateUnknownIDIsNotFound(t *testing.T) {
	repo := newFakeTaskRepo(seedTask("t-other", "owner-2", "B", "Art", "2025-01-12", models.StatusPending))
	c, _ := loadedTasks(t, repo)

	name := "hijack"
	res := c.Update(context.Background(), "t-other", models.TaskUpdate{Name: &name})
	assert.False(t, res.Success)
	assert.True(t, repositories.IsNotFound(res.Err))
	assert.Equal(t, 0, repo.called("update"), "other owners' records are never touched")
}

func TestTaskUpdateFailureLeavesSnapshotUntouched(t *testing.T) {
	repo := newFakeTaskRepo(seedTask("t-a", "owner-1", "A", "Math", "2025-01-12", models.StatusPending))
	c, _ := loadedTasks(t, repo)
	repo.updateErr = errors.New("timeout")

	name := "renamed"
	res := c.Update(context.Background(), "t-a", models.TaskUpdate{Name: &name})
	assert.False(t, res.Success)
	assert.Equal(t, "A", c.All()[0].Name)

	res = c.Complete(context.Background(), "t-a")
	assert.False(t, res.Success)
	assert.Equal(t, models.StatusPending, c.All()[0].Status)
}

func TestTaskDelete(t *testing.T) {
	repo := newFakeTaskRepo(
		seedTask("t-a", "owner-1", "A", "Math", "2025-01-12", models.StatusPending),
		seedTask("t-b", "owner-1", "B", "Math", "2025-01-13", models.StatusPending),
	)
	c, rec := loadedTasks(t, repo)

	res := c.Delete(context.Background(), "t-a")
	require.True(t, res.Success, res.Error)
	require.Len(t, c.All(), 1)
	assert.Equal(t, "t-b", c.All()[0].ID)
	assert.Equal(t, "Task deleted successfully", rec.last().Message)

	before := c.All()[0]
	repo.deleteErr = errors.New("boom")
	res = c.Delete(context.Background(), "t-b")
	assert.False(t, res.Success)
	require.Len(t, c.All(), 1)
	assert.Equal(t, before, c.All()[0])
	assert.Equal(t, "Failed to delete task", rec.last().Message)
}

func TestEachMutationEmitsOneNotification(t *testing.T) {
	repo := newFakeTaskRepo(seedTask("t-a", "owner-1", "A", "Math", "2025-01-12", models.StatusPending))
	c, rec := loadedTasks(t, repo)
	ctx := context.Background()

	c.Create(ctx, models.TaskDraft{Name: "B", Deadline: today, EstimatedTime: 10})
	c.Complete(ctx, "t-a")
	c.Delete(ctx, "missing")
	c.Delete(ctx, "t-a")
	assert.Len(t, rec.all(), 4)
}

func TestBulkUpdateStatusIsNotAtomic(t *testing.T) {
	repo := newFakeTaskRepo(
		seedTask("t-a", "owner-1", "A", "Math", "2025-01-12", models.StatusPending),
		seedTask("t-b", "owner-1", "B", "Math", "2025-01-13", models.StatusPending),
		seedTask("t-c", "owner-1", "C", "Math", "2025-01-14", models.StatusPending),
	)
	c, rec := loadedTasks(t, repo)
	repo.failIDs["t-b"] = true

	res := c.BulkUpdateStatus(context.Background(), []string{"t-a", "t-b", "t-c", "t-missing"}, models.StatusCompleted)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"t-a", "t-c"}, res.Updated)
	assert.Contains(t, res.Failed, "t-b")
	assert.Contains(t, res.Failed, "t-missing")

	completed := c.Completed()
	require.Len(t, completed, 2, "successes stay applied")
	assert.Equal(t, "t-a", completed[0].ID)
	assert.Equal(t, "t-c", completed[1].ID)
	assert.Len(t, rec.all(), 1)
	assert.Equal(t, models.NotifyError, rec.last().Level)
}

func TestTaskFetchErrorState(t *testing.T) {
	repo := newFakeTaskRepo()
	repo.listErr = errors.New("permission denied")
	rec := &recorder{}
	c := NewTaskCollection(repo, rec)

	err := c.SetOwner(context.Background(), "owner-1")
	require.Error(t, err)
	assert.Equal(t, StateError, c.State())
	var ferr *FetchError
	require.ErrorAs(t, c.Err(), &ferr)
	assert.Equal(t, "tasks", ferr.Collection)
	assert.Empty(t, c.All())
	assert.Equal(t, "Failed to load tasks", rec.last().Message)

	repo.listErr = nil
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, StateReady, c.State())
	assert.NoError(t, c.Err())
}

func TestOwnerChangeDiscardsSnapshot(t *testing.T) {
	repo := newFakeTaskRepo(
		seedTask("t-a", "owner-1", "A", "Math", "2025-01-12", models.StatusPending),
		seedTask("t-b", "owner-2", "B", "Art", "2025-01-13", models.StatusPending),
	)
	c, _ := loadedTasks(t, repo)
	require.Len(t, c.All(), 1)

	require.NoError(t, c.SetOwner(context.Background(), ""))
	assert.Equal(t, StateUninitialized, c.State())
	assert.Empty(t, c.All())

	require.NoError(t, c.SetOwner(context.Background(), "owner-2"))
	all := c.All()
	require.Len(t, all, 1)
	for _, task := range all {
		assert.Equal(t, "owner-2", task.OwnerID)
	}
}

func TestTaskViews(t *testing.T) {
	repo := newFakeTaskRepo(
		seedTask("a", "owner-1", "A", "Math", "2025-01-10", models.StatusPending),
		seedTask("b", "owner-1", "B", "Physics", "2025-01-07", models.StatusPending),
		seedTask("c", "owner-1", "C", "Math", "2025-01-13", models.StatusPending),
		seedTask("d", "owner-1", "D", "Physics", "2025-01-05", models.StatusCompleted),
		seedTask("e", "owner-1", "E", "", "2025-02-01", models.StatusPending),
	)
	c, _ := loadedTasks(t, repo)

	ids := func(tasks []models.Task) []string {
		out := []string{}
		for _, t := range tasks {
			out = append(out, t.ID)
		}
		return out
	}

	assert.Equal(t, []string{"d", "b", "a", "c", "e"}, ids(c.All()))
	assert.Equal(t, []string{"b", "a", "c", "e"}, ids(c.Pending()))
	assert.Equal(t, ids(c.Pending()), ids(c.Pending()), "views are idempotent")
	assert.Equal(t, []string{"d"}, ids(c.Completed()))
	assert.Equal(t, []string{"a", "c"}, ids(c.BySubject("Math")))
	assert.Equal(t, []string{"Math", "Physics"}, c.Subjects())
	assert.Equal(t, []string{"b"}, ids(c.Overdue(today)))
	assert.Equal(t, []string{"a", "c"}, ids(c.DueSoon(today)))

	classified := c.Classified(today)
	require.Len(t, classified, 5)
	assert.Equal(t, "Completed", classified[0].Urgency.Label)
	assert.Equal(t, urgency.Overdue, classified[1].Urgency.Level)
	assert.Equal(t, -3, classified[1].Urgency.DaysUntil)
	assert.Equal(t, urgency.Critical, classified[2].Urgency.Level)
	assert.Equal(t, "3 days left", classified[3].Urgency.Label)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, canTransition(models.StatusPending, models.StatusCompleted))
	assert.True(t, canTransition(models.StatusPending, models.StatusPending))
	assert.True(t, canTransition(models.StatusCompleted, models.StatusCompleted))
	assert.False(t, canTransition(models.StatusCompleted, models.StatusPending))
	assert.False(t, canTransition("archived", models.StatusPending))
}
