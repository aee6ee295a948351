package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyplan/internal/models"
)

func TestEncodeEscaping(t *testing.T) {
	rows := [][]string{
		{"plain", "Math, Physics", `He said "hi"`, "two\nlines", " padded "},
	}
	got := Encode(rows)
	assert.Equal(t, `plain,"Math, Physics","He said ""hi""","two`+"\n"+`lines", padded `, got)
}

func TestEncodeJoinsRowsWithoutTrailingNewline(t *testing.T) {
	got := Encode([][]string{{"a", "b"}, {"c"}})
	assert.Equal(t, "a,b\nc", got)
	assert.Equal(t, "", Encode(nil))
}

func TestScheduleRows(t *testing.T) {
	schedule := models.Schedule{
		"2025-01-11": {Sessions: []models.Session{
			{Type: models.SessionExamRevision, Title: "Revise ch. 1", Subject: "History", Duration: 45},
		}},
		"2025-01-10": {Sessions: []models.Session{
			{Type: models.SessionHomework, Title: "Essay", Subject: "English", Duration: 60, Status: "done"},
			{Type: models.SessionHomework, Title: "Problems", Subject: "Math", Duration: 30},
		}},
	}

	rows := ScheduleRows(schedule)
	require.Len(t, rows, 4)
	assert.Equal(t, ScheduleHeader, rows[0])
	assert.Equal(t, []string{"2025-01-10", "Friday", "Homework", "Essay", "English", "60", "done"}, rows[1])
	assert.Equal(t, []string{"2025-01-10", "Friday", "Homework", "Problems", "Math", "30", "planned"}, rows[2])
	assert.Equal(t, []string{"2025-01-11", "Saturday", "Exam Revision", "Revise ch. 1", "History", "45", "planned"}, rows[3])
}

func TestTaskAndExamRows(t *testing.T) {
	created := time.Date(2025, 1, 9, 14, 30, 0, 0, time.UTC)
	tasks := []models.Task{{
		ID: "t-1", Name: "Lab, part 2", Subject: "Chemistry",
		Deadline: models.MustParseDate("2025-01-14"), EstimatedTime: 90,
		Status: models.StatusPending, CreatedAt: created,
	}}
	exams := []models.Exam{{ID: "e-1", Subject: "History", Date: models.MustParseDate("2025-01-20")}}

	taskRows := TaskRows(tasks)
	assert.Equal(t, TaskHeader, taskRows[0])
	assert.Equal(t, []string{"t-1", "Lab, part 2", "Chemistry", "2025-01-14", "90", "pending", "2025-01-09 14:30"}, taskRows[1])

	examRows := ExamRows(exams)
	assert.Equal(t, []string{"e-1", "History", "2025-01-20", "240", "", "N/A"}, examRows[1])

	csv := Encode(taskRows)
	assert.Contains(t, csv, `t-1,"Lab, part 2",Chemistry`)
}

func TestStudyPlanRowsSections(t *testing.T) {
	rows := StudyPlanRows(models.Schedule{}, nil, nil)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "WEEKLY SCHEDULE", lines[0])
	assert.Equal(t, "", lines[1])
	assert.Equal(t, strings.Join(ScheduleHeader, ","), lines[2])
	assert.Equal(t, "TASKS", lines[5])
	assert.Equal(t, strings.Join(TaskHeader, ","), lines[7])
	assert.Equal(t, "EXAMS", lines[10])
	assert.Equal(t, strings.Join(ExamHeader, ","), lines[12])
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 1, 10, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "tasks-2025-01-10.csv", Filename(ArtifactTasks, now))
	assert.Equal(t, "complete-study-plan-2025-01-10.csv", Filename(ArtifactStudyPlan, now))
}
