package pdf

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"studyplan/internal/export"
	"studyplan/internal/models"
	"studyplan/internal/urgency"
)

// Generator renders printable documents (easy to mock in handler tests).
type Generator interface {
	RenderSchedule(w io.Writer, data ScheduleData) error
}

// DocumentGenerator draws with a UTF-8 TTF when FontPath points to one and
// falls back to the Helvetica core font otherwise.
type DocumentGenerator struct {
	FontPath string
	fontName string
}

type ScheduleData struct {
	Owner        string
	Today        models.Date
	WeekStartsOn time.Weekday
	Schedule     models.Schedule
	Tasks        []models.Task
	Exams        []models.Exam
	GeneratedAt  time.Time
}

func NewDocumentGenerator(fontPath string) *DocumentGenerator {
	return &DocumentGenerator{FontPath: fontPath, fontName: "DejaVu"}
}

func (g *DocumentGenerator) RenderSchedule(w io.Writer, data ScheduleData) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Study plan", true)
	pdf.SetAuthor("studyplan", false)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 18)

	font, tr := g.setupFont(pdf)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(font, "", 9)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(font, "B", 18)
	pdf.CellFormat(0, 10, "Study plan", "", 1, "C", false, 0, "")
	pdf.SetFont(font, "", 10)
	generated := data.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s  |  generated %s", data.Owner, generated.Format("2006-01-02 15:04"))), "", 1, "C", false, 0, "")
	g.hr(pdf)

	week := urgency.WeekDates(data.Today, data.WeekStartsOn)
	g.sectionTitle(pdf, font, fmt.Sprintf("Weekly schedule (%s - %s)", week[0].Format("Jan 2"), week[6].Format("Jan 2")))
	rows := export.ScheduleRows(data.Schedule)
	if len(rows) == 1 {
		g.note(pdf, font, "No sessions planned.")
	} else {
		g.table(pdf, font, tr, []float64{22, 22, 26, 50, 30, 16, 14}, rows)
	}

	g.sectionTitle(pdf, font, "Tasks")
	if len(data.Tasks) == 0 {
		g.note(pdf, font, "No tasks.")
	} else {
		// most urgent first
		type row struct {
			task models.Task
			c    urgency.Classification
		}
		ordered := make([]row, 0, len(data.Tasks))
		for _, t := range data.Tasks {
			ordered = append(ordered, row{t, urgency.ForTask(t, data.Today)})
		}
		sort.SliceStable(ordered, func(i, j int) bool { return urgency.Less(ordered[i].c, ordered[j].c) })

		taskRows := [][]string{{"Name", "Subject", "Deadline", "Time", "Urgency"}}
		for _, r := range ordered {
			taskRows = append(taskRows, []string{r.task.Name, r.task.Subject, r.task.Deadline.String(), urgency.FormatMinutes(r.task.EstimatedTime), r.c.Label})
		}
		g.table(pdf, font, tr, []float64{60, 35, 25, 20, 40}, taskRows)
	}

	g.sectionTitle(pdf, font, "Exams")
	if len(data.Exams) == 0 {
		g.note(pdf, font, "No exams.")
	} else {
		examRows := [][]string{{"Subject", "Date", "When", "Revision", "Notes"}}
		for _, e := range data.Exams {
			examRows = append(examRows, []string{e.Subject, e.Date.String(), urgency.RelativeTime(e.Date, data.Today), urgency.FormatMinutes(e.EstimatedTime), e.Notes})
		}
		g.table(pdf, font, tr, []float64{40, 25, 30, 25, 60}, examRows)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render schedule pdf: %w", err)
	}
	return nil
}

func (g *DocumentGenerator) setupFont(pdf *gofpdf.Fpdf) (string, func(string) string) {
	if g.FontPath != "" {
		if _, err := os.Stat(g.FontPath); err == nil {
			pdf.AddUTF8Font(g.fontName, "", g.FontPath)
			pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
			return g.fontName, func(s string) string { return s }
		}
	}
	return "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
}

func (g *DocumentGenerator) sectionTitle(pdf *gofpdf.Fpdf, font, s string) {
	pdf.Ln(3)
	pdf.SetFont(font, "B", 13)
	pdf.CellFormat(0, 8, s, "", 1, "L", false, 0, "")
}

func (g *DocumentGenerator) note(pdf *gofpdf.Fpdf, font, s string) {
	pdf.SetFont(font, "", 10)
	pdf.CellFormat(0, 6, s, "", 1, "L", false, 0, "")
}

func (g *DocumentGenerator) table(pdf *gofpdf.Fpdf, font string, tr func(string) string, widths []float64, rows [][]string) {
	for i, row := range rows {
		if i == 0 {
			pdf.SetFont(font, "B", 9)
			pdf.SetFillColor(230, 230, 230)
		} else {
			pdf.SetFont(font, "", 9)
		}
		for j, cell := range row {
			if j >= len(widths) {
				break
			}
			pdf.CellFormat(widths[j], 6, fit(pdf, tr(cell), widths[j]-2), "1", 0, "L", i == 0, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fit truncates s so it fits in width mm.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func (g *DocumentGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(15, y, 195, y)
	pdf.SetY(y + 2)
}
