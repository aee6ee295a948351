package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyplan/internal/models"
	"studyplan/internal/services"
)

type TaskHandler struct {
	ws    *services.Workspace
	clock Clock
}

func NewTaskHandler(ws *services.Workspace, clock Clock) *TaskHandler {
	return &TaskHandler{ws: ws, clock: clock}
}

type createTaskRequest struct {
	Name          string      `json:"name" binding:"required"`
	Subject       string      `json:"subject"`
	Deadline      string      `json:"deadline" binding:"required"`
	EstimatedTime flexMinutes `json:"estimated_time"`
}

type updateTaskRequest struct {
	Name          *string      `json:"name"`
	Subject       *string      `json:"subject"`
	Deadline      *string      `json:"deadline"`
	EstimatedTime *flexMinutes `json:"estimated_time"`
	Status        *string      `json:"status"`
}

type bulkStatusRequest struct {
	IDs    []string `json:"ids" binding:"required"`
	Status string   `json:"status" binding:"required"`
}

// @Summary      List tasks
// @Description  view: all (default), pending, completed, overdue, due-soon; optional subject filter
// @Tags         Tasks
// @Produce      json
// @Param        view     query  string  false  "derived view"
// @Param        subject  query  string  false  "subject filter"
// @Success      200  {object}  listResponse
// @Failure      400  {object}  services.Result
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	today := h.clock.today()

	var tasks []models.Task
	switch view := c.DefaultQuery("view", "all"); view {
	case "all":
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
		fail(c, http.StatusBadRequest, "unknown view "+view)
		return
	}
	if subject, has := c.GetQuery("subject"); has {
		filtered := []models.Task{}
		for _, t := range tasks {
			if t.Subject == subject {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	c.JSON(http.StatusOK, listResponse{
		Success: s.Tasks.State() == services.StateReady,
		State:   s.Tasks.State(),
		Error:   stateError(s.Tasks.Err()),
		Items:   services.Classified(tasks, today),
	})
}

// @Summary  Distinct task subjects
// @Tags     Tasks
// @Produce  json
// @Success  200  {object}  listResponse
// @Router   /tasks/subjects [get]
func (h *TaskHandler) Subjects(c *gin.Context) {
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, listResponse{Success: true, State: s.Tasks.State(), Items: s.Tasks.Subjects()})
}

// @Summary  Create a task
// @Tags     Tasks
// @Accept   json
// @Produce  json
// @Param    task  body      createTaskRequest  true  "task draft"
// @Success  201   {object}  services.TaskResult
// @Failure  400   {object}  services.TaskResult
// @Failure  500   {object}  services.TaskResult
// @Router   /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][create][bind][err] %v", err)
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	deadline, err := parseDateField("deadline", req.Deadline)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	res := s.Tasks.Create(c.Request.Context(), models.TaskDraft{
		Name:          req.Name,
		Subject:       req.Subject,
		Deadline:      deadline,
		EstimatedTime: int(req.EstimatedTime),
	})
	respond(c, http.StatusCreated, res.Result, res)
}

// @Summary  Update a task
// @Description  A completed task cannot go back to pending
// @Tags     Tasks
// @Accept   json
// @Produce  json
// @Param    id    path      string             true  "task id"
// @Param    task  body      updateTaskRequest  true  "fields to change"
// @Success  200   {object}  services.TaskResult
// @Failure  400   {object}  services.TaskResult
// @Failure  404   {object}  services.TaskResult
// @Router   /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[task][update][bind][err] %v", err)
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	upd := models.TaskUpdate{Name: req.Name, Subject: req.Subject}
	if req.Deadline != nil {
		d, err := parseDateField("deadline", *req.Deadline)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		upd.Deadline = &d
	}
	if req.EstimatedTime != nil {
		minutes := int(*req.EstimatedTime)
		upd.EstimatedTime = &minutes
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		upd.Status = &status
	}

	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	res := s.Tasks.Update(c.Request.Context(), c.Param("id"), upd)
	respond(c, http.StatusOK, res.Result, res)
}

// @Summary  Mark a task completed
// @Tags     Tasks
// @Produce  json
// @Param    id  path      string  true  "task id"
// @Success  200 {object}  services.TaskResult
// @Failure  404 {object}  services.TaskResult
// @Router   /tasks/{id}/complete [post]
func (h *TaskHandler) Complete(c *gin.Context) {
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	res := s.Tasks.Complete(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, res.Result, res)
}

// @Summary  Delete a task
// @Tags     Tasks
// @Produce  json
// @Param    id  path      string  true  "task id"
// @Success  200 {object}  services.Result
// @Failure  404 {object}  services.Result
// @Router   /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	res := s.Tasks.Delete(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, res, res)
}

// @Summary  Set the status of several tasks
// @Description  Not atomic: ids that fail are listed, the rest stay updated
// @Tags     Tasks
// @Accept   json
// @Produce  json
// @Param    body  body      bulkStatusRequest  true  "ids and status"
// @Success  200   {object}  services.BulkResult
// @Failure  207   {object}  services.BulkResult
// @Router   /tasks/bulk-status [post]
func (h *TaskHandler) BulkStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	res := s.Tasks.BulkUpdateStatus(c.Request.Context(), req.IDs, models.TaskStatus(req.Status))
	switch {
	case res.Success:
		c.JSON(http.StatusOK, res)
	case len(res.Updated) > 0:
		c.JSON(http.StatusMultiStatus, res)
	case res.Err != nil:
		c.JSON(statusFor(res.Err), res)
	default:
		c.JSON(http.StatusBadRequest, res)
	}
}
