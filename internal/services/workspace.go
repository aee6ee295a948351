package services

import (
	"context"
	"log"
	"sync"

	"studyplan/internal/repositories"
)

// Session holds the two collections of one signed-in owner.
type Session struct {
	Owner string
	Tasks *TaskCollection
	Exams *ExamCollection
}

// Workspace keeps a Session per owner for the HTTP server.
type Workspace struct {
	mu       sync.Mutex
	tasks    repositories.TaskRepository
	exams    repositories.ExamRepository
	notifier Notifier
	settings ExamSettings
	sessions map[string]*Session
}

func NewWorkspace(tasks repositories.TaskRepository, exams repositories.ExamRepository, notifier Notifier, settings ExamSettings) *Workspace {
	return &Workspace{
		tasks:    tasks,
		exams:    exams,
		notifier: notifier,
		settings: settings,
		sessions: map[string]*Session{},
	}
}

// Open returns the owner's session, creating and loading it on first use.
// A session whose load failed is returned together with the error.
func (w *Workspace) Open(ctx context.Context, owner string) (*Session, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}
	w.mu.Lock()
	s, ok := w.sessions[owner]
	if !ok {
		s = &Session{
			Owner: owner,
			Tasks: NewTaskCollection(w.tasks, w.notifier),
			Exams: NewExamCollection(w.exams, w.notifier, w.settings),
		}
		w.sessions[owner] = s
	}
	w.mu.Unlock()

	if ok && s.Tasks.State() == StateReady && s.Exams.State() == StateReady {
		return s, nil
	}
	if err := s.load(ctx); err != nil {
		return s, err
	}
	log.Printf("[workspace][open] owner=%s", owner)
	return s, nil
}

// Get returns an already opened session.
func (w *Workspace) Get(owner string) (*Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.sessions[owner]
	return s, ok
}

// Refresh reloads both collections of an open session.
func (w *Workspace) Refresh(ctx context.Context, owner string) (*Session, error) {
	s, ok := w.Get(owner)
	if !ok {
		return w.Open(ctx, owner)
	}
	return s, s.load(ctx)
}

// Close clears the owner's snapshots and forgets the session.
func (w *Workspace) Close(owner string) bool {
	w.mu.Lock()
	s, ok := w.sessions[owner]
	delete(w.sessions, owner)
	w.mu.Unlock()
	if !ok {
		return false
	}
	_ = s.Tasks.SetOwner(context.Background(), "")
	_ = s.Exams.SetOwner(context.Background(), "")
	log.Printf("[workspace][close] owner=%s", owner)
	return true
}

func (s *Session) load(ctx context.Context) error {
	terr := s.Tasks.SetOwner(ctx, s.Owner)
	eerr := s.Exams.SetOwner(ctx, s.Owner)
	if terr != nil {
		return terr
	}
	return eerr
}
