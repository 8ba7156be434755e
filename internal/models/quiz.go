package models

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyMixed  Difficulty = "mixed"
)

var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
	DifficultyMixed:  true,
}

type FeedbackMode string

const (
	// FeedbackImmediate reveals correctness as soon as a question is
	// answered and locks the first choice.
	FeedbackImmediate FeedbackMode = "immediate"
	// FeedbackDeferred hides correctness until the quiz ends; answers may
	// be changed freely while the session is active.
	FeedbackDeferred FeedbackMode = "deferred"
)

var ValidFeedbackModes = map[FeedbackMode]bool{
	FeedbackImmediate: true,
	FeedbackDeferred:  true,
}

type SessionStatus string

const (
	SessionConfiguring SessionStatus = "configuring"
	SessionActive      SessionStatus = "active"
	SessionCompleted   SessionStatus = "completed"
	SessionReviewing   SessionStatus = "reviewing"
)

// OptionCount is the fixed number of answer choices per question.
const OptionCount = 4

// RawQuestion is a question as parsed from the completion collaborator.
// By convention the model is instructed to place the correct option at
// index 0, but consumers must go through CorrectOption rather than assume it.
type RawQuestion struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
}

// PreparedQuestion is a RawQuestion after shuffling, with the correct
// answer's new position tracked. The shuffle is fixed for the lifetime of
// one session: restarting replays the same layout.
type PreparedQuestion struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Result is the persisted outcome of one completed quiz session.
type Result struct {
	ID           string    `json:"id"`
	ChapterLabel string    `json:"chapter_label"`
	Score        int       `json:"score"`
	Total        int       `json:"total"`
	Percentage   int       `json:"percentage"`
	CreatedAt    time.Time `json:"created_at"`
}

// ── Quiz Request/Response Types ─────────────────────────

type GenerateQuizRequest struct {
	TextIDs    []string   `json:"text_ids"`
	Count      int        `json:"count"`
	Difficulty Difficulty `json:"difficulty"`
}

type GenerateQuizResponse struct {
	SessionID string        `json:"session_id"`
	Status    SessionStatus `json:"status"`
	Chapter   string        `json:"chapter"`
	Total     int           `json:"total"`
}

type BeginQuizRequest struct {
	FeedbackMode FeedbackMode `json:"feedback_mode"`
}

type AnswerRequest struct {
	Choice int `json:"choice"`
}

type SeekRequest struct {
	Index int `json:"index"`
}

// QuestionView is a single question as rendered to the student. The correct
// index is only revealed after an immediate-mode answer or in review.
type QuestionView struct {
	Index        int      `json:"index"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	Chosen       *int     `json:"chosen,omitempty"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
}

type SessionView struct {
	SessionID     string        `json:"session_id"`
	Status        SessionStatus `json:"status"`
	FeedbackMode  FeedbackMode  `json:"feedback_mode,omitempty"`
	Chapter       string        `json:"chapter"`
	Total         int           `json:"total"`
	Answered      int           `json:"answered"`
	FeedbackShown bool          `json:"feedback_shown,omitempty"`
	Question      *QuestionView `json:"question,omitempty"`
	Score         *int          `json:"score,omitempty"`
	Percentage    *int          `json:"percentage,omitempty"`
}

type ExplainRequest struct {
	Choice *int `json:"choice,omitempty"`
}

type ExplainResponse struct {
	Explanation string `json:"explanation"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
