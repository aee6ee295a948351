package services

import (
	"fmt"

	"github.com/pkg/errors"

	"studyplan/internal/models"
	"studyplan/internal/urgency"
)

// State is the lifecycle of a collection snapshot.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateError         State = "error"
)

// ErrNoOwner is returned by mutations issued before an owner is known.
var ErrNoOwner = errors.New("no owner: sign in first")

// ValidationError reports a malformed field in a draft or update.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// FetchError is kept on a collection whose initial list failed.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Result is the uniform outcome of a mutation. Mutations never return Go
// errors; Err carries the cause for callers that need to branch on it.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Err     error  `json:"-"`
}

func succeeded() Result { return Result{Success: true} }

func failed(err error) Result {
	return Result{Success: false, Error: err.Error(), Err: err}
}

type TaskResult struct {
	Result
	Task *models.Task `json:"task,omitempty"`
}

type ExamResult struct {
	Result
	Exam *models.Exam `json:"exam,omitempty"`
}

// BulkResult reports a non-atomic batch: successes stay applied even when
// other ids failed.
type BulkResult struct {
	Result
	Updated []string          `json:"updated"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// ClassifiedTask pairs a task with its urgency for rendering.
type ClassifiedTask struct {
	Task    models.Task            `json:"task"`
	Urgency urgency.Classification `json:"urgency"`
}

type ClassifiedExam struct {
	Exam    models.Exam            `json:"exam"`
	Urgency urgency.Classification `json:"urgency"`
}
