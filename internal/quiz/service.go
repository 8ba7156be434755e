package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qcm-trainer/backend/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// Service owns every live quiz session. Sessions are single-user and
// in-memory; all mutation funnels through the service so the state machine
// is never touched concurrently.
type Service struct {
	generator *Generator
	explainer *Explainer
	recorder  ResultRecorder

	// newRNG seeds one shuffler per generated quiz; injectable for tests.
	newRNG func() *rand.Rand

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewService(generator *Generator, explainer *Explainer, recorder ResultRecorder) *Service {
	return &Service{
		generator: generator,
		explainer: explainer,
		recorder:  recorder,
		newRNG: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		sessions: make(map[string]*Session),
	}
}

// CreateSession drives generation to completion and registers a new session
// in configuring state. A generation failure creates nothing: there is no
// session to start with a partial question set.
func (s *Service) CreateSession(ctx context.Context, chapter, corpus string, count int, difficulty models.Difficulty) (models.SessionView, error) {
	raws, err := s.generator.Generate(ctx, corpus, count, difficulty, func(collected, target int) {
		log.Printf("[quiz] generating %d/%d questions", collected, target)
	})
	if err != nil {
		return models.SessionView{}, fmt.Errorf("generate questions: %w", err)
	}

	shuffler := NewShuffler(s.newRNG())
	prepared := shuffler.PrepareAll(raws)

	session := NewSession(uuid.NewString(), chapter, prepared, s.recorder)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	return session.View(), nil
}

// Update runs one state-machine operation under the registry lock and
// returns the refreshed view.
func (s *Service) Update(id string, op func(*Session) error) (models.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return models.SessionView{}, ErrSessionNotFound
	}
	if err := op(session); err != nil {
		return models.SessionView{}, err
	}
	return session.View(), nil
}

// View returns the current rendering of a session without mutating it.
func (s *Service) View(id string) (models.SessionView, error) {
	return s.Update(id, func(*Session) error { return nil })
}

// Explain produces an on-demand justification for the current question.
// The completion call runs outside the registry lock: an in-flight
// explanation never blocks session navigation, and it touches no session
// state.
func (s *Service) Explain(ctx context.Context, id string, choiceOverride *int) (string, error) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return "", ErrSessionNotFound
	}
	q, chosen, answered := session.Current()
	s.mu.Unlock()

	chosenText := ""
	switch {
	case choiceOverride != nil && *choiceOverride >= 0 && *choiceOverride < len(q.Options):
		chosenText = q.Options[*choiceOverride]
	case answered:
		chosenText = q.Options[chosen]
	}

	return s.explainer.Explain(ctx, q.Prompt, q.Options[q.CorrectIndex], chosenText), nil
}
