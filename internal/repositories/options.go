package repositories

import (
	"time"

	"github.com/google/uuid"
)

// Option tweaks how a repository assigns ids and timestamps.
type Option func(*settings)

type settings struct {
	now   func() time.Time
	newID func() string
}

func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *settings) { s.newID = newID }
}

func newSettings(opts []Option) settings {
	s := settings{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// timestamp is the store-side "now"; microseconds match what postgres keeps.
func (s settings) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
