package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studyplan/internal/export"
	"studyplan/internal/models"
	"studyplan/internal/pdf"
	"studyplan/internal/services"
)

type ExportHandler struct {
	ws     *services.Workspace
	clock  Clock
	pdf    pdf.Generator
	mailer services.Mailer
}

// NewExportHandler takes a nil mailer when SMTP is not configured.
func NewExportHandler(ws *services.Workspace, clock Clock, gen pdf.Generator, mailer services.Mailer) *ExportHandler {
	return &ExportHandler{ws: ws, clock: clock, pdf: gen, mailer: mailer}
}

type scheduleRequest struct {
	Schedule models.Schedule `json:"schedule"`
}

type emailExportRequest struct {
	To       string          `json:"to" binding:"required,email"`
	Artifact string          `json:"artifact" binding:"required"`
	Schedule models.Schedule `json:"schedule"`
}

func (h *ExportHandler) sendCSV(c *gin.Context, artifact string, rows [][]string) {
	filename := export.Filename(artifact, h.clock.now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(export.Encode(rows)))
}

// @Summary  Export tasks as CSV
// @Tags     Exports
// @Produce  text/csv
// @Success  200
// @Router   /exports/tasks.csv [get]
func (h *ExportHandler) TasksCSV(c *gin.Context) {
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	h.sendCSV(c, export.ArtifactTasks, export.TaskRows(s.Tasks.All()))
}

// @Summary  Export exams as CSV
// @Tags     Exports
// @Produce  text/csv
// @Success  200
// @Router   /exports/exams.csv [get]
func (h *ExportHandler) ExamsCSV(c *gin.Context) {
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	h.sendCSV(c, export.ArtifactExams, export.ExamRows(s.Exams.All()))
}

// @Summary  Export a schedule as CSV
// @Tags     Exports
// @Accept   json
// @Produce  text/csv
// @Param    body  body  scheduleRequest  true  "schedule keyed by date"
// @Success  200
// @Router   /exports/schedule.csv [post]
func (h *ExportHandler) ScheduleCSV(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	h.sendCSV(c, export.ArtifactSchedule, export.ScheduleRows(req.Schedule))
}

// @Summary  Export schedule, tasks and exams as one CSV
// @Tags     Exports
// @Accept   json
// @Produce  text/csv
// @Param    body  body  scheduleRequest  true  "schedule keyed by date"
// @Success  200
// @Router   /exports/study-plan.csv [post]
func (h *ExportHandler) StudyPlanCSV(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	h.sendCSV(c, export.ArtifactStudyPlan, export.StudyPlanRows(req.Schedule, s.Tasks.All(), s.Exams.All()))
}

// @Summary  Printable study plan
// @Tags     Exports
// @Accept   json
// @Produce  application/pdf
// @Param    body  body  scheduleRequest  true  "schedule keyed by date"
// @Success  200
// @Router   /exports/schedule.pdf [post]
func (h *ExportHandler) SchedulePDF(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := h.pdf.RenderSchedule(&buf, pdf.ScheduleData{
		Owner:        s.Owner,
		Today:        h.clock.today(),
		WeekStartsOn: s.Exams.WeekStartsOn(),
		Schedule:     req.Schedule,
		Tasks:        s.Tasks.Pending(),
		Exams:        s.Exams.Upcoming(h.clock.today()),
		GeneratedAt:  h.clock.now(),
	})
	if err != nil {
		log.Printf("[export][pdf][err] owner=%s: %v", s.Owner, err)
		fail(c, http.StatusInternalServerError, "failed to render pdf")
		return
	}
	filename := strings.TrimSuffix(export.Filename(export.ArtifactSchedule, h.clock.now()), ".csv") + ".pdf"
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// @Summary  Email a CSV export
// @Description  artifact: tasks, exams, study-schedule, complete-study-plan
// @Tags     Exports
// @Accept   json
// @Produce  json
// @Param    body  body      emailExportRequest  true  "recipient and artifact"
// @Success  200   {object}  services.Result
// @Failure  503   {object}  services.Result
// @Router   /exports/email [post]
func (h *ExportHandler) Email(c *gin.Context) {
	if h.mailer == nil {
		fail(c, http.StatusServiceUnavailable, "email is not configured")
		return
	}
	var req emailExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}

	var rows [][]string
	switch req.Artifact {
	case export.ArtifactTasks:
		rows = export.TaskRows(s.Tasks.All())
	case export.ArtifactExams:
		rows = export.ExamRows(s.Exams.All())
	case export.ArtifactSchedule:
		rows = export.ScheduleRows(req.Schedule)
	case export.ArtifactStudyPlan:
		rows = export.StudyPlanRows(req.Schedule, s.Tasks.All(), s.Exams.All())
	default:
		fail(c, http.StatusBadRequest, "unknown artifact "+req.Artifact)
		return
	}

	filename := export.Filename(req.Artifact, h.clock.now())
	if err := h.mailer.SendExport(req.To, filename, []byte(export.Encode(rows))); err != nil {
		log.Printf("[export][email][err] owner=%s to=%s: %v", s.Owner, req.To, err)
		fail(c, http.StatusBadGateway, "failed to send email")
		return
	}
	log.Printf("[export][email][ok] owner=%s to=%s file=%s", s.Owner, req.To, filename)
	c.JSON(http.StatusOK, services.Result{Success: true})
}
