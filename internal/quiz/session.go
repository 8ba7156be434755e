package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/qcm-trainer/backend/internal/models"
)

// ResultRecorder persists a completed session's outcome. The session fires
// it at most once and never lets a persistence failure reach the student.
type ResultRecorder interface {
	Append(ctx context.Context, result models.Result) error
}

var (
	ErrNotConfiguring  = errors.New("session already started")
	ErrNotActive       = errors.New("session is not active")
	ErrNotCompleted    = errors.New("session is not completed")
	ErrNotReviewing    = errors.New("session is not in review")
	ErrUnanswered      = errors.New("current question is unanswered")
	ErrNotLastQuestion = errors.New("not on the last question")
)

// Session is one quiz attempt. All mutation goes through its methods; the
// prepared question set is fixed for the session's lifetime, so a restart
// replays the same shuffled layout.
type Session struct {
	id           string
	chapter      string
	prepared     []models.PreparedQuestion
	feedbackMode models.FeedbackMode
	status       models.SessionStatus
	currentIndex int
	answers      map[int]int

	// feedbackShown is transient UI substate for the current question,
	// cleared on navigation.
	feedbackShown bool

	// recorded is the one-shot guard around result persistence.
	recorded bool

	recorder ResultRecorder
}

func NewSession(id, chapter string, prepared []models.PreparedQuestion, recorder ResultRecorder) *Session {
	return &Session{
		id:       id,
		chapter:  chapter,
		prepared: prepared,
		status:   models.SessionConfiguring,
		answers:  make(map[int]int),
		recorder: recorder,
	}
}

func (s *Session) ID() string                        { return s.id }
func (s *Session) Status() models.SessionStatus      { return s.status }
func (s *Session) FeedbackMode() models.FeedbackMode { return s.feedbackMode }

// Start moves a configured session into active answering.
func (s *Session) Start(mode models.FeedbackMode) error {
	if s.status != models.SessionConfiguring {
		return ErrNotConfiguring
	}
	if !models.ValidFeedbackModes[mode] {
		return fmt.Errorf("invalid feedback mode %q", mode)
	}
	s.feedbackMode = mode
	s.status = models.SessionActive
	s.currentIndex = 0
	s.answers = make(map[int]int)
	return nil
}

// Answer records a choice for the current question. In immediate mode the
// first choice is final: repeat calls are no-ops. In deferred mode the
// student may change their mind until the quiz ends.
func (s *Session) Answer(choice int) error {
	if s.status != models.SessionActive {
		return ErrNotActive
	}
	if choice < 0 || choice >= models.OptionCount {
		return fmt.Errorf("choice %d outside range [0, %d]", choice, models.OptionCount-1)
	}

	if s.feedbackMode == models.FeedbackImmediate {
		if _, answered := s.answers[s.currentIndex]; answered {
			return nil
		}
		s.answers[s.currentIndex] = choice
		s.feedbackShown = true
		return nil
	}

	s.answers[s.currentIndex] = choice
	return nil
}

// Next advances to the following question. Immediate mode requires the
// current question to be answered first; deferred mode allows skipping.
// Navigation is also available while reviewing.
func (s *Session) Next() error {
	switch s.status {
	case models.SessionActive:
		if s.feedbackMode == models.FeedbackImmediate {
			if _, answered := s.answers[s.currentIndex]; !answered {
				return ErrUnanswered
			}
		}
	case models.SessionReviewing:
	default:
		return ErrNotActive
	}

	s.feedbackShown = false
	if s.currentIndex < len(s.prepared)-1 {
		s.currentIndex++
	}
	return nil
}

// Previous steps back one question, never below zero.
func (s *Session) Previous() error {
	if s.status != models.SessionActive && s.status != models.SessionReviewing {
		return ErrNotActive
	}
	s.feedbackShown = false
	if s.currentIndex > 0 {
		s.currentIndex--
	}
	return nil
}

// Seek jumps straight to a question during review.
func (s *Session) Seek(index int) error {
	if s.status != models.SessionReviewing {
		return ErrNotReviewing
	}
	if index < 0 || index >= len(s.prepared) {
		return fmt.Errorf("index %d outside range [0, %d]", index, len(s.prepared)-1)
	}
	s.feedbackShown = false
	s.currentIndex = index
	return nil
}

// Finish closes an active session from its last question, scores it over
// all questions (unanswered counts as incorrect), and records the result.
// Calling it again on an already completed session is a no-op, so a stale
// trigger can never persist a second result.
func (s *Session) Finish(ctx context.Context) error {
	if s.status == models.SessionCompleted {
		return nil
	}
	if s.status != models.SessionActive {
		return ErrNotActive
	}
	if s.currentIndex != len(s.prepared)-1 {
		return ErrNotLastQuestion
	}

	s.status = models.SessionCompleted
	s.feedbackShown = false

	if s.recorded {
		return nil
	}
	s.recorded = true

	result := models.Result{
		ChapterLabel: s.chapter,
		Score:        s.Score(),
		Total:        len(s.prepared),
		Percentage:   percentage(s.Score(), len(s.prepared)),
		CreatedAt:    time.Now().UTC(),
	}
	if s.recorder != nil {
		if err := s.recorder.Append(ctx, result); err != nil {
			log.Printf("WARN: failed to record result for session %s: %v", s.id, err)
		}
	}
	return nil
}

// EnterReview switches a completed session into review from the first
// question. Answers are frozen; navigation stays open.
func (s *Session) EnterReview() error {
	if s.status != models.SessionCompleted {
		return ErrNotCompleted
	}
	s.status = models.SessionReviewing
	s.currentIndex = 0
	return nil
}

func (s *Session) ExitReview() error {
	if s.status != models.SessionReviewing {
		return ErrNotReviewing
	}
	s.status = models.SessionCompleted
	return nil
}

// Restart clears answers and progress but keeps the prepared set, so the
// retry shows the same shuffled layout as the first attempt. The recording
// one-shot resets too: a restarted attempt gets its own result.
func (s *Session) Restart() error {
	switch s.status {
	case models.SessionActive, models.SessionCompleted, models.SessionReviewing:
	default:
		return ErrNotActive
	}
	s.status = models.SessionActive
	s.currentIndex = 0
	s.answers = make(map[int]int)
	s.feedbackShown = false
	s.recorded = false
	return nil
}

// Score counts correct answers over every question; unanswered questions
// score zero.
func (s *Session) Score() int {
	score := 0
	for i, q := range s.prepared {
		if chosen, ok := s.answers[i]; ok && chosen == q.CorrectIndex {
			score++
		}
	}
	return score
}

// Current returns the current prepared question and the recorded answer.
func (s *Session) Current() (models.PreparedQuestion, int, bool) {
	q := s.prepared[s.currentIndex]
	chosen, answered := s.answers[s.currentIndex]
	return q, chosen, answered
}

// View renders the session for the HTTP layer. Correctness is only exposed
// after an immediate-mode answer or during review.
func (s *Session) View() models.SessionView {
	view := models.SessionView{
		SessionID:     s.id,
		Status:        s.status,
		FeedbackMode:  s.feedbackMode,
		Chapter:       s.chapter,
		Total:         len(s.prepared),
		Answered:      len(s.answers),
		FeedbackShown: s.feedbackShown,
	}

	switch s.status {
	case models.SessionActive, models.SessionReviewing:
		q, chosen, answered := s.Current()
		qv := &models.QuestionView{
			Index:   s.currentIndex,
			Prompt:  q.Prompt,
			Options: q.Options,
		}
		if answered {
			c := chosen
			qv.Chosen = &c
		}
		reveal := s.status == models.SessionReviewing ||
			(s.feedbackMode == models.FeedbackImmediate && answered)
		if reveal {
			ci := q.CorrectIndex
			qv.CorrectIndex = &ci
		}
		view.Question = qv
	case models.SessionCompleted:
		score := s.Score()
		pct := percentage(score, len(s.prepared))
		view.Score = &score
		view.Percentage = &pct
	}

	return view
}

func percentage(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}
