// Package export projects tasks, exams and schedules into CSV files.
package export

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"studyplan/internal/models"
)

// Artifact names used in download file names.
const (
	ArtifactTasks     = "tasks"
	ArtifactExams     = "exams"
	ArtifactSchedule  = "study-schedule"
	ArtifactStudyPlan = "complete-study-plan"
)

var (
	ScheduleHeader = []string{"Date", "Day", "Session Type", "Title", "Subject", "Duration (minutes)", "Status"}
	TaskHeader     = []string{"Task ID", "Name", "Subject", "Deadline", "Duration (minutes)", "Status", "Created At"}
	ExamHeader     = []string{"Exam ID", "Subject", "Date", "Total Revision Time (minutes)", "Notes", "Created At"}
)

const createdAtLayout = "2006-01-02 15:04"

// ScheduleRows emits one row per session, dates ascending, sessions in
// their given order.
func ScheduleRows(schedule models.Schedule) [][]string {
	rows := [][]string{ScheduleHeader}

	dates := make([]string, 0, len(schedule))
	for date := range schedule {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		day := ""
		if d, err := models.ParseDate(date); err == nil {
			day = d.Weekday().String()
		}
		for _, s := range schedule[date].Sessions {
			rows = append(rows, []string{
				date,
				day,
				sessionTypeLabel(s.Type),
				s.Title,
				s.Subject,
				strconv.Itoa(s.Duration),
				statusOrPlanned(s.Status),
			})
		}
	}
	return rows
}

func sessionTypeLabel(t models.SessionType) string {
	if t == models.SessionHomework {
		return "Homework"
	}
	return "Exam Revision"
}

func statusOrPlanned(status string) string {
	if status == "" {
		return "planned"
	}
	return status
}

func TaskRows(tasks []models.Task) [][]string {
	rows := [][]string{TaskHeader}
	for _, t := range tasks {
		rows = append(rows, []string{
			t.ID,
			t.Name,
			t.Subject,
			t.Deadline.String(),
			strconv.Itoa(t.EstimatedTime),
			string(t.Status),
			formatCreatedAt(t.CreatedAt),
		})
	}
	return rows
}

func ExamRows(exams []models.Exam) [][]string {
	rows := [][]string{ExamHeader}
	for _, e := range exams {
		minutes := e.EstimatedTime
		if minutes == 0 {
			minutes = models.DefaultExamMinutes
		}
		rows = append(rows, []string{
			e.ID,
			e.Subject,
			e.Date.String(),
			strconv.Itoa(minutes),
			e.Notes,
			formatCreatedAt(e.CreatedAt),
		})
	}
	return rows
}

func formatCreatedAt(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format(createdAtLayout)
}

// StudyPlanRows concatenates the three exports under section titles.
func StudyPlanRows(schedule models.Schedule, tasks []models.Task, exams []models.Exam) [][]string {
	blank := []string{""}
	rows := [][]string{{"WEEKLY SCHEDULE"}, blank}
	rows = append(rows, ScheduleRows(schedule)...)
	rows = append(rows, blank, blank, []string{"TASKS"}, blank)
	rows = append(rows, TaskRows(tasks)...)
	rows = append(rows, blank, blank, []string{"EXAMS"}, blank)
	rows = append(rows, ExamRows(exams)...)
	return rows
}

// Encode joins fields with commas and rows with "\n", without a trailing
// newline. Only fields holding a comma, quote or newline are quoted.
func Encode(rows [][]string) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, field := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(escape(field))
		}
	}
	return b.String()
}

func escape(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Write encodes rows to w.
func Write(w io.Writer, rows [][]string) error {
	_, err := io.WriteString(w, Encode(rows))
	return err
}

// Filename is "<artifact>-<yyyy-MM-dd>.csv".
func Filename(artifact string, now time.Time) string {
	return artifact + "-" + now.Format(models.DateLayout) + ".csv"
}
