package repositories

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound is returned (wrapped in a StoreError) when no record has the id.
var ErrNotFound = errors.New("record not found")

const (
	tasksCollection = "tasks"
	examsCollection = "exams"
)

// StoreError wraps every failure coming out of the store.
type StoreError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Collection, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Cause lets errors.Cause reach the driver error.
func (e *StoreError) Cause() error { return e.Err }

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func storeErr(op, collection, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	return &StoreError{Op: op, Collection: collection, ID: id, Err: err}
}
