package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyplan/internal/calendar"
	"studyplan/internal/models"
	"studyplan/internal/services"
	"studyplan/internal/urgency"
)

// ExamPublisher pushes exams to an external calendar.
type ExamPublisher interface {
	Sync(ctx context.Context, exams []models.Exam) calendar.SyncReport
}

type ExamHandler struct {
	ws        *services.Workspace
	clock     Clock
	publisher ExamPublisher
}

// NewExamHandler takes a nil publisher when calendar sync is disabled.
func NewExamHandler(ws *services.Workspace, clock Clock, publisher ExamPublisher) *ExamHandler {
	return &ExamHandler{ws: ws, clock: clock, publisher: publisher}
}

type createExamRequest struct {
	Subject       string      `json:"subject" binding:"required"`
	Date          string      `json:"date" binding:"required"`
	EstimatedTime flexMinutes `json:"estimated_time"`
	Notes         string      `json:"notes"`
}

type updateExamRequest struct {
	Subject       *string      `json:"subject"`
	Date          *string      `json:"date"`
	EstimatedTime *flexMinutes `json:"estimated_time"`
	Notes         *string      `json:"notes"`
}

type nextExamResponse struct {
	Success  bool                     `json:"success"`
	Exam     *services.ClassifiedExam `json:"exam"`
	Relative string                   `json:"relative,omitempty"`
}

// @Summary      List exams
// @Description  view: all (default), upcoming, past, this-week; optional subject filter
// @Tags         Exams
// @Produce      json
// @Param        view     query  string  false  "derived view"
// @Param        subject  query  string  false  "subject filter"
// @Success      200  {object}  listResponse
// @Router       /exams [get]
func (h *ExamHandler) List(c *gin.Context) {
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	today := h.clock.today()

	var exams []models.Exam
	switch view := c.DefaultQuery("view", "all"); view {
	case "all":
		exams = s.Exams.All()
	case "upcoming":
		exams = s.Exams.Upcoming(today)
	case "past":
		exams = s.Exams.Past(today)
	case "this-week":
		exams = s.Exams.ThisWeek(today)
	default:
		fail(c, http.StatusBadRequest, "unknown view "+view)
		return
	}
	if subject, has := c.GetQuery("subject"); has {
		filtered := []models.Exam{}
		for _, e := range exams {
			if e.Subject == subject {
				filtered = append(filtered, e)
			}
		}
		exams = filtered
	}

	c.JSON(http.StatusOK, listResponse{
		Success: s.Exams.State() == services.StateReady,
		State:   s.Exams.State(),
		Error:   stateError(s.Exams.Err()),
		Items:   services.ClassifiedExams(exams, today),
	})
}

// @Summary  The soonest upcoming exam
// @Tags     Exams
// @Produce  json
// @Success  200  {object}  nextExamResponse
// @Router   /exams/next [get]
func (h *ExamHandler) Next(c *gin.Context) {
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	today := h.clock.today()
	exam, found := s.Exams.Next(today)
	if !found {
		c.JSON(http.StatusOK, nextExamResponse{Success: true})
		return
	}
	classified := services.ClassifiedExams([]models.Exam{exam}, today)[0]
	c.JSON(http.StatusOK, nextExamResponse{
		Success:  true,
		Exam:     &classified,
		Relative: urgency.RelativeTime(exam.Date, today),
	})
}

// @Summary  Create an exam
// @Description  estimated_time defaults to 240 minutes when missing or invalid
// @Tags     Exams
// @Accept   json
// @Produce  json
// @Param    exam  body      createExamRequest  true  "exam draft"
// @Success  201   {object}  services.ExamResult
// @Failure  400   {object}  services.ExamResult
// @Router   /exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	var req createExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[exam][create][bind][err] %v", err)
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	res := s.Exams.Create(c.Request.Context(), models.ExamDraft{
		Subject:       req.Subject,
		Date:          date,
		EstimatedTime: int(req.EstimatedTime),
		Notes:         req.Notes,
	})
	respond(c, http.StatusCreated, res.Result, res)
}

// @Summary  Update an exam
// @Tags     Exams
// @Accept   json
// @Produce  json
// @Param    id    path      string             true  "exam id"
// @Param    exam  body      updateExamRequest  true  "fields to change"
// @Success  200   {object}  services.ExamResult
// @Failure  404   {object}  services.ExamResult
// @Router   /exams/{id} [put]
func (h *ExamHandler) Update(c *gin.Context) {
	var req updateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	upd := models.ExamUpdate{Subject: req.Subject, Notes: req.Notes}
	if req.Date != nil {
		d, err := parseDateField("date", *req.Date)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		upd.Date = &d
	}
	if req.EstimatedTime != nil {
		minutes := int(*req.EstimatedTime)
		upd.EstimatedTime = &minutes
	}
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	res := s.Exams.Update(c.Request.Context(), c.Param("id"), upd)
	respond(c, http.StatusOK, res.Result, res)
}

// @Summary  Delete an exam
// @Tags     Exams
// @Produce  json
// @Param    id  path      string  true  "exam id"
// @Success  200 {object}  services.Result
// @Failure  404 {object}  services.Result
// @Router   /exams/{id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) {
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	res := s.Exams.Delete(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, res, res)
}

// @Summary  Publish upcoming exams to Google Calendar
// @Tags     Exams
// @Produce  json
// @Success  200  {object}  calendar.SyncReport
// @Failure  503  {object}  services.Result
// @Router   /exams/calendar-sync [post]
func (h *ExamHandler) CalendarSync(c *gin.Context) {
	if h.publisher == nil {
		fail(c, http.StatusServiceUnavailable, "calendar sync is not configured")
		return
	}
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	report := h.publisher.Sync(c.Request.Context(), s.Exams.Upcoming(h.clock.today()))
	log.Printf("[exam][calendar][done] owner=%s created=%d updated=%d failed=%d", s.Owner, report.Created, report.Updated, len(report.Failed))
	c.JSON(http.StatusOK, report)
}
