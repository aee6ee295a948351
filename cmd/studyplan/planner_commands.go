package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"studyplan/internal/app"
	"studyplan/internal/config"
	"studyplan/internal/db"
	"studyplan/internal/export"
	"studyplan/internal/models"
	"studyplan/internal/repositories"
	"studyplan/internal/services"
	"studyplan/internal/urgency"
)

var (
	plannerOwner string
	plannerView  string
	exportOut    string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List an owner's tasks with their urgency",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *services.Session) error {
			today := models.DateOf(time.Now())
			var tasks []models.Task
			switch plannerView {
			case "", "all":
				tasks = s.Tasks.All()
			case "pending":
				tasks = s.Tasks.Pending()
			case "completed":
				tasks = s.Tasks.Completed()
			case "overdue":
				tasks = s.Tasks.Overdue(today)
			case "due-soon":
				tasks = s.Tasks.DueSoon(today)
			default:
				return fmt.Errorf("unknown view %q", plannerView)
			}
			printTasks(cmd.OutOrStdout(), services.Classified(tasks, today))
			return nil
		})
	},
}

var examsCmd = &cobra.Command{
	Use:   "exams",
	Short: "List an owner's exams with their urgency",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *services.Session) error {
			today := models.DateOf(time.Now())
			var exams []models.Exam
			switch plannerView {
			case "", "all":
				exams = s.Exams.All()
			case "upcoming":
				exams = s.Exams.Upcoming(today)
			case "past":
				exams = s.Exams.Past(today)
			case "this-week":
				exams = s.Exams.ThisWeek(today)
			case "next":
				if next, ok := s.Exams.Next(today); ok {
					exams = []models.Exam{next}
				}
			default:
				return fmt.Errorf("unknown view %q", plannerView)
			}
			printExams(cmd.OutOrStdout(), services.ClassifiedExams(exams, today))
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:       "export <tasks|exams|study-plan>",
	Short:     "Write an owner's data as CSV",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"tasks", "exams", "study-plan"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *services.Session) error {
			var (
				rows     [][]string
				artifact string
			)
			switch args[0] {
			case "tasks":
				rows, artifact = export.TaskRows(s.Tasks.All()), export.ArtifactTasks
			case "exams":
				rows, artifact = export.ExamRows(s.Exams.All()), export.ArtifactExams
			case "study-plan":
				rows = export.StudyPlanRows(models.Schedule{}, s.Tasks.All(), s.Exams.All())
				artifact = export.ArtifactStudyPlan
			default:
				return fmt.Errorf("unknown export %q", args[0])
			}

			out := exportOut
			if out == "" {
				return export.Write(cmd.OutOrStdout(), rows)
			}
			if out == "." {
				out = export.Filename(artifact, time.Now())
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.Write(f, rows); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render("wrote "+out))
			return nil
		})
	},
}

// withSession opens the owner's collections straight from the store.
func withSession(ctx context.Context, fn func(*services.Session) error) error {
	if plannerOwner == "" {
		return fmt.Errorf("--owner is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	settings, err := app.ExamSettings(cfg)
	if err != nil {
		return err
	}
	conn, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	ws := services.NewWorkspace(
		repositories.NewTaskRepository(conn),
		repositories.NewExamRepository(conn),
		services.LogNotifier{},
		settings,
	)
	s, err := ws.Open(ctx, plannerOwner)
	if err != nil {
		return err
	}
	defer ws.Close(plannerOwner)
	return fn(s)
}

func printTasks(w io.Writer, tasks []services.ClassifiedTask) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no tasks"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, headerStyle.Render("DEADLINE")+"\t"+headerStyle.Render("NAME")+"\t"+headerStyle.Render("SUBJECT")+"\t"+headerStyle.Render("TIME")+"\t"+headerStyle.Render("URGENCY"))
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			t.Task.Deadline, t.Task.Name, t.Task.Subject, urgency.FormatMinutes(t.Task.EstimatedTime), badge(t.Urgency))
	}
	_ = tw.Flush()
}

func printExams(w io.Writer, exams []services.ClassifiedExam) {
	if len(exams) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no exams"))
		return
	}
	today := models.DateOf(time.Now())
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, headerStyle.Render("DATE")+"\t"+headerStyle.Render("SUBJECT")+"\t"+headerStyle.Render("REVISION")+"\t"+headerStyle.Render("WHEN")+"\t"+headerStyle.Render("URGENCY"))
	for _, e := range exams {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Exam.Date, e.Exam.Subject, urgency.FormatMinutes(e.Exam.EstimatedTime), urgency.RelativeTime(e.Exam.Date, today), badge(e.Urgency))
	}
	_ = tw.Flush()
}

func init() {
	for _, c := range []*cobra.Command{tasksCmd, examsCmd, exportCmd} {
		c.Flags().StringVar(&plannerOwner, "owner", "", "owner id")
	}
	tasksCmd.Flags().StringVar(&plannerView, "view", "all", "all, pending, completed, overdue or due-soon")
	examsCmd.Flags().StringVar(&plannerView, "view", "all", "all, upcoming, past, this-week or next")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", `output file; "." uses the dated default name`)

	rootCmd.AddCommand(tasksCmd, examsCmd, exportCmd)
}
