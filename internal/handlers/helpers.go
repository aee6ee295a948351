package handlers

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"studyplan/internal/middleware"
	"studyplan/internal/models"
	"studyplan/internal/repositories"
	"studyplan/internal/services"
)

// Clock returns the current time; tests pin it.
type Clock func() time.Time

func (f Clock) today() models.Date {
	if f == nil {
		return models.DateOf(time.Now())
	}
	return models.DateOf(f())
}

func (f Clock) now() time.Time {
	if f == nil {
		return time.Now()
	}
	return f()
}

// listResponse wraps a derived view together with the collection state.
type listResponse struct {
	Success bool           `json:"success"`
	State   services.State `json:"state"`
	Error   string         `json:"error,omitempty"`
	Items   interface{}    `json:"items"`
}

func fail(c *gin.Context, code int, msg string) {
	c.JSON(code, services.Result{Success: false, Error: msg})
}

// statusFor maps a failed result to an HTTP status.
func statusFor(err error) int {
	var verr *services.ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case repositories.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNoOwner):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func respond(c *gin.Context, okCode int, res services.Result, body interface{}) {
	if !res.Success {
		c.JSON(statusFor(res.Err), body)
		return
	}
	c.JSON(okCode, body)
}

// openSession returns the caller's session, loading it on first use. A load
// failure is not fatal: the session reports it through its state.
func openSession(c *gin.Context, ws *services.Workspace) (*services.Session, bool) {
	owner := middleware.OwnerID(c)
	if owner == "" {
		fail(c, http.StatusUnauthorized, services.ErrNoOwner.Error())
		return nil, false
	}
	s, err := ws.Open(c.Request.Context(), owner)
	if s == nil {
		log.Printf("[session][open][err] owner=%s: %v", owner, err)
		fail(c, http.StatusInternalServerError, "failed to open session")
		return nil, false
	}
	return s, true
}

func stateError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// flexMinutes accepts 90, 90.0 or "90". Anything else decodes as 0 so the
// collection decides between rejecting and defaulting.
type flexMinutes int

func (m *flexMinutes) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*m = flexMinutes(clampMinutes(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*m = flexMinutes(clampMinutes(f))
			return nil
		}
	}
	*m = 0
	return nil
}

func clampMinutes(f float64) int {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func parseDateField(field, value string) (models.Date, error) {
	d, err := models.ParseDate(value)
	if err != nil {
		return models.Date{}, &services.ValidationError{Field: field, Message: err.Error()}
	}
	return d, nil
}
