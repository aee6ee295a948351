package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyplan/internal/middleware"
	"studyplan/internal/services"
)

type SessionHandler struct {
	ws *services.Workspace
}

func NewSessionHandler(ws *services.Workspace) *SessionHandler {
	return &SessionHandler{ws: ws}
}

type collectionStatus struct {
	State services.State `json:"state"`
	Error string         `json:"error,omitempty"`
	Count int            `json:"count"`
}

type sessionResponse struct {
	Success bool             `json:"success"`
	Owner   string           `json:"owner"`
	Tasks   collectionStatus `json:"tasks"`
	Exams   collectionStatus `json:"exams"`
}

func describe(s *services.Session) sessionResponse {
	return sessionResponse{
		Success: s.Tasks.State() == services.StateReady && s.Exams.State() == services.StateReady,
		Owner:   s.Owner,
		Tasks:   collectionStatus{State: s.Tasks.State(), Error: stateError(s.Tasks.Err()), Count: len(s.Tasks.All())},
		Exams:   collectionStatus{State: s.Exams.State(), Error: stateError(s.Exams.Err()), Count: len(s.Exams.All())},
	}
}

// @Summary      Sign in
// @Description  Loads (or reloads) the caller's tasks and exams
// @Tags         Session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      500  {object}  sessionResponse
// @Router       /session [post]
func (h *SessionHandler) Open(c *gin.Context) {
	owner := middleware.OwnerID(c)
	s, err := h.ws.Refresh(c.Request.Context(), owner)
	if s == nil {
		log.Printf("[session][open][err] owner=%s: %v", owner, err)
		fail(c, http.StatusInternalServerError, "failed to open session")
		return
	}
	resp := describe(s)
	if err != nil {
		log.Printf("[session][open][err] owner=%s: %v", owner, err)
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	log.Printf("[session][open][ok] owner=%s tasks=%d exams=%d", owner, resp.Tasks.Count, resp.Exams.Count)
	c.JSON(http.StatusOK, resp)
}

// @Summary  Session state
// @Tags     Session
// @Produce  json
// @Success  200  {object}  sessionResponse
// @Router   /session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	s, ok := openSession(c, h.ws)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, describe(s))
}

// @Summary  Sign out
// @Description  Discards the caller's snapshots
// @Tags     Session
// @Produce  json
// @Success  200  {object}  services.Result
// @Router   /session [delete]
func (h *SessionHandler) Close(c *gin.Context) {
	owner := middleware.OwnerID(c)
	h.ws.Close(owner)
	log.Printf("[session][close] owner=%s", owner)
	c.JSON(http.StatusOK, services.Result{Success: true})
}
