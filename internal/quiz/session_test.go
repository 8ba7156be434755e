package quiz

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/qcm-trainer/backend/internal/models"
)

// recorderSpy captures appended results and can simulate storage failure.
type recorderSpy struct {
	results []models.Result
	err     error
}

func (r *recorderSpy) Append(ctx context.Context, result models.Result) error {
	if r.err != nil {
		return r.err
	}
	r.results = append(r.results, result)
	return nil
}

func preparedSet(n int) []models.PreparedQuestion {
	set := make([]models.PreparedQuestion, n)
	for i := 0; i < n; i++ {
		set[i] = models.PreparedQuestion{
			Prompt:       fmt.Sprintf("Question %d?", i+1),
			Options:      []string{"w1", "right", "w2", "w3"},
			CorrectIndex: 1,
		}
	}
	return set
}

func activeSession(t *testing.T, n int, mode models.FeedbackMode, rec ResultRecorder) *Session {
	t.Helper()
	s := NewSession("sess-1", "Chapter One", preparedSet(n), rec)
	if s.Status() != models.SessionConfiguring {
		t.Fatalf("new session should be configuring, got %s", s.Status())
	}
	if err := s.Start(mode); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	return s
}

// Full immediate-mode run: answer everything, some wrong, finish, check the
// score and the recorded result.
func TestSession_ImmediateModeFullRun(t *testing.T) {
	rec := &recorderSpy{}
	s := activeSession(t, 10, models.FeedbackImmediate, rec)

	for i := 0; i < 10; i++ {
		choice := 1
		if i >= 7 {
			choice = 0 // three wrong answers
		}
		if err := s.Answer(choice); err != nil {
			t.Fatalf("answer %d failed: %v", i, err)
		}
		if i < 9 {
			if err := s.Next(); err != nil {
				t.Fatalf("next after %d failed: %v", i, err)
			}
		}
	}

	if err := s.Finish(context.Background()); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if s.Status() != models.SessionCompleted {
		t.Errorf("expected completed, got %s", s.Status())
	}
	if s.Score() != 7 {
		t.Errorf("expected score 7, got %d", s.Score())
	}

	if len(rec.results) != 1 {
		t.Fatalf("expected 1 recorded result, got %d", len(rec.results))
	}
	got := rec.results[0]
	if got.ChapterLabel != "Chapter One" || got.Score != 7 || got.Total != 10 || got.Percentage != 70 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestSession_ImmediateModeLocksFirstAnswer(t *testing.T) {
	s := activeSession(t, 3, models.FeedbackImmediate, nil)

	if err := s.Answer(1); err != nil {
		t.Fatalf("first answer failed: %v", err)
	}
	if err := s.Answer(0); err != nil {
		t.Fatalf("repeat answer should be a no-op, got: %v", err)
	}

	_, chosen, answered := s.Current()
	if !answered || chosen != 1 {
		t.Errorf("expected locked answer 1, got chosen=%d answered=%v", chosen, answered)
	}
}

func TestSession_ImmediateModeRequiresAnswerBeforeNext(t *testing.T) {
	s := activeSession(t, 3, models.FeedbackImmediate, nil)

	if err := s.Next(); !errors.Is(err, ErrUnanswered) {
		t.Fatalf("expected ErrUnanswered, got: %v", err)
	}
	if err := s.Answer(2); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if err := s.Next(); err != nil {
		t.Errorf("next after answering failed: %v", err)
	}
}

func TestSession_ImmediateModeRevealsCorrectness(t *testing.T) {
	s := activeSession(t, 3, models.FeedbackImmediate, nil)

	if view := s.View(); view.Question.CorrectIndex != nil {
		t.Error("correct index must stay hidden before answering")
	}

	if err := s.Answer(0); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	view := s.View()
	if view.Question.CorrectIndex == nil || *view.Question.CorrectIndex != 1 {
		t.Error("correct index should be revealed after an immediate-mode answer")
	}
	if !view.FeedbackShown {
		t.Error("feedback flag should be set after an immediate-mode answer")
	}
}

func TestSession_DeferredModeAllowsChangingAnswers(t *testing.T) {
	s := activeSession(t, 3, models.FeedbackDeferred, nil)

	if err := s.Answer(0); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if err := s.Answer(3); err != nil {
		t.Fatalf("re-answer failed: %v", err)
	}

	_, chosen, _ := s.Current()
	if chosen != 3 {
		t.Errorf("expected overwritten answer 3, got %d", chosen)
	}
	if view := s.View(); view.Question.CorrectIndex != nil {
		t.Error("deferred mode must not reveal correctness while active")
	}
}

func TestSession_DeferredModeAllowsSkipping(t *testing.T) {
	s := activeSession(t, 3, models.FeedbackDeferred, nil)

	if err := s.Next(); err != nil {
		t.Fatalf("deferred next without answer failed: %v", err)
	}
}

// Unanswered questions count against the score.
func TestSession_UnansweredCountsIncorrect(t *testing.T) {
	rec := &recorderSpy{}
	s := activeSession(t, 4, models.FeedbackDeferred, rec)

	s.Answer(1)
	s.Next()
	s.Next() // skip question 2
	s.Next()
	s.Answer(1)

	if err := s.Finish(context.Background()); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if s.Score() != 2 {
		t.Errorf("expected score 2, got %d", s.Score())
	}
	if rec.results[0].Percentage != 50 {
		t.Errorf("expected 50%%, got %d", rec.results[0].Percentage)
	}
}

func TestSession_FinishRequiresLastQuestion(t *testing.T) {
	s := activeSession(t, 5, models.FeedbackDeferred, nil)

	if err := s.Finish(context.Background()); !errors.Is(err, ErrNotLastQuestion) {
		t.Fatalf("expected ErrNotLastQuestion, got: %v", err)
	}
}

// Finishing an already completed session changes nothing and records
// nothing new.
func TestSession_FinishIdempotent(t *testing.T) {
	rec := &recorderSpy{}
	s := activeSession(t, 2, models.FeedbackDeferred, rec)
	s.Answer(1)
	s.Next()
	s.Answer(1)

	if err := s.Finish(context.Background()); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if err := s.Finish(context.Background()); err != nil {
		t.Fatalf("repeat finish should be a no-op, got: %v", err)
	}

	if s.Status() != models.SessionCompleted {
		t.Errorf("expected completed, got %s", s.Status())
	}
	if len(rec.results) != 1 {
		t.Errorf("expected exactly 1 recorded result, got %d", len(rec.results))
	}
}

// A storage failure is logged and swallowed: the student still sees their
// score.
func TestSession_RecorderFailureDoesNotFailFinish(t *testing.T) {
	rec := &recorderSpy{err: errors.New("disk full")}
	s := activeSession(t, 2, models.FeedbackDeferred, rec)
	s.Next()

	if err := s.Finish(context.Background()); err != nil {
		t.Fatalf("finish must swallow recorder errors, got: %v", err)
	}
	if s.Status() != models.SessionCompleted {
		t.Errorf("expected completed, got %s", s.Status())
	}
}

func TestSession_ReviewFlow(t *testing.T) {
	s := activeSession(t, 3, models.FeedbackDeferred, nil)
	s.Answer(1)
	s.Next()
	s.Next()
	s.Answer(0)
	if err := s.Finish(context.Background()); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	if err := s.EnterReview(); err != nil {
		t.Fatalf("enter review failed: %v", err)
	}
	view := s.View()
	if view.Status != models.SessionReviewing {
		t.Fatalf("expected reviewing, got %s", view.Status)
	}
	if view.Question.Index != 0 {
		t.Errorf("review should start at question 0, got %d", view.Question.Index)
	}
	if view.Question.CorrectIndex == nil {
		t.Error("review must reveal the correct index")
	}

	// Answers are frozen in review.
	if err := s.Answer(2); !errors.Is(err, ErrNotActive) {
		t.Errorf("expected ErrNotActive answering in review, got: %v", err)
	}

	if err := s.Seek(2); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	view = s.View()
	if view.Question.Index != 2 {
		t.Errorf("expected question 2 after seek, got %d", view.Question.Index)
	}
	if view.Question.Chosen == nil || *view.Question.Chosen != 0 {
		t.Error("review should show the recorded answer")
	}

	if err := s.Seek(5); err == nil {
		t.Error("expected error seeking out of range")
	}

	if err := s.ExitReview(); err != nil {
		t.Fatalf("exit review failed: %v", err)
	}
	if s.Status() != models.SessionCompleted {
		t.Errorf("expected completed after exit, got %s", s.Status())
	}
}

func TestSession_SeekOnlyInReview(t *testing.T) {
	s := activeSession(t, 3, models.FeedbackDeferred, nil)

	if err := s.Seek(1); !errors.Is(err, ErrNotReviewing) {
		t.Errorf("expected ErrNotReviewing, got: %v", err)
	}
}

// Restart replays the same prepared set with a clean slate, and the retry
// records its own result.
func TestSession_RestartKeepsLayoutAndRecordsAgain(t *testing.T) {
	rec := &recorderSpy{}
	s := activeSession(t, 2, models.FeedbackDeferred, rec)
	before := s.View().Question.Options

	s.Answer(1)
	s.Next()
	s.Answer(1)
	s.Finish(context.Background())

	if err := s.Restart(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	view := s.View()
	if view.Status != models.SessionActive {
		t.Fatalf("expected active after restart, got %s", view.Status)
	}
	if view.Answered != 0 {
		t.Errorf("restart should clear answers, got %d", view.Answered)
	}
	for i := range before {
		if view.Question.Options[i] != before[i] {
			t.Fatal("restart must keep the same shuffled layout")
		}
	}

	s.Next()
	if err := s.Finish(context.Background()); err != nil {
		t.Fatalf("second finish failed: %v", err)
	}
	if len(rec.results) != 2 {
		t.Errorf("expected 2 recorded results across attempts, got %d", len(rec.results))
	}
}

func TestSession_NextAtLastQuestionStays(t *testing.T) {
	s := activeSession(t, 2, models.FeedbackDeferred, nil)
	s.Next()

	if err := s.Next(); err != nil {
		t.Fatalf("next at last question should be a no-op, got: %v", err)
	}
	if view := s.View(); view.Question.Index != 1 {
		t.Errorf("expected to stay on question 1, got %d", view.Question.Index)
	}
}

func TestSession_PreviousAtFirstQuestionStays(t *testing.T) {
	s := activeSession(t, 2, models.FeedbackDeferred, nil)

	if err := s.Previous(); err != nil {
		t.Fatalf("previous at first question should be a no-op, got: %v", err)
	}
	if view := s.View(); view.Question.Index != 0 {
		t.Errorf("expected to stay on question 0, got %d", view.Question.Index)
	}
}

func TestSession_StartValidation(t *testing.T) {
	s := NewSession("sess-2", "Chapter", preparedSet(2), nil)

	if err := s.Start("sometimes"); err == nil {
		t.Error("expected error for invalid feedback mode")
	}
	if err := s.Start(models.FeedbackImmediate); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := s.Start(models.FeedbackDeferred); !errors.Is(err, ErrNotConfiguring) {
		t.Errorf("expected ErrNotConfiguring on second start, got: %v", err)
	}
}

func TestSession_AnswerValidation(t *testing.T) {
	s := NewSession("sess-3", "Chapter", preparedSet(2), nil)

	if err := s.Answer(0); !errors.Is(err, ErrNotActive) {
		t.Errorf("expected ErrNotActive before start, got: %v", err)
	}

	s.Start(models.FeedbackDeferred)
	if err := s.Answer(-1); err == nil {
		t.Error("expected error for negative choice")
	}
	if err := s.Answer(models.OptionCount); err == nil {
		t.Error("expected error for out-of-range choice")
	}
}

func TestSession_CompletedViewHasScore(t *testing.T) {
	s := activeSession(t, 4, models.FeedbackDeferred, nil)
	s.Answer(1)
	s.Next()
	s.Answer(1)
	s.Next()
	s.Answer(1)
	s.Next()
	s.Finish(context.Background())

	view := s.View()
	if view.Question != nil {
		t.Error("completed view should carry no question")
	}
	if view.Score == nil || *view.Score != 3 {
		t.Fatalf("expected score 3, got %v", view.Score)
	}
	if view.Percentage == nil || *view.Percentage != 75 {
		t.Fatalf("expected 75%%, got %v", view.Percentage)
	}
}

func TestPercentage_Rounding(t *testing.T) {
	cases := []struct {
		score, total, want int
	}{
		{1, 3, 33},
		{2, 3, 67},
		{7, 10, 70},
		{0, 5, 0},
		{5, 5, 100},
		{0, 0, 0},
	}
	for _, c := range cases {
		if got := percentage(c.score, c.total); got != c.want {
			t.Errorf("percentage(%d, %d) = %d, want %d", c.score, c.total, got, c.want)
		}
	}
}
