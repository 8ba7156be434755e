package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/qcm-trainer/backend/internal/models"
)

// TextProvider supplies the source texts a quiz is generated from.
type TextProvider interface {
	GetMany(ctx context.Context, ids []string) ([]models.TextEntry, error)
}

type Handler struct {
	service *Service
	texts   TextProvider
}

func NewHandler(service *Service, texts TextProvider) *Handler {
	return &Handler{service: service, texts: texts}
}

// RegisterRoutes registers the quiz endpoints on the given subrouter.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/quiz", h.CreateQuiz).Methods("POST")
	r.HandleFunc("/quiz/{id}", h.GetQuiz).Methods("GET")
	r.HandleFunc("/quiz/{id}/start", h.StartQuiz).Methods("POST")
	r.HandleFunc("/quiz/{id}/answer", h.Answer).Methods("POST")
	r.HandleFunc("/quiz/{id}/next", h.Next).Methods("POST")
	r.HandleFunc("/quiz/{id}/previous", h.Previous).Methods("POST")
	r.HandleFunc("/quiz/{id}/seek", h.Seek).Methods("POST")
	r.HandleFunc("/quiz/{id}/finish", h.Finish).Methods("POST")
	r.HandleFunc("/quiz/{id}/review", h.EnterReview).Methods("POST")
	r.HandleFunc("/quiz/{id}/review/exit", h.ExitReview).Methods("POST")
	r.HandleFunc("/quiz/{id}/restart", h.Restart).Methods("POST")
	r.HandleFunc("/quiz/{id}/explain", h.Explain).Methods("POST")
}

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if len(req.TextIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Select at least one text"})
		return
	}
	if req.Count < MinQuestionCount || req.Count > MaxQuestionCount {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "count must be between 5 and 50"})
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = models.DifficultyMixed
	}
	if !models.ValidDifficulties[req.Difficulty] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "difficulty must be 'easy', 'medium', 'hard', or 'mixed'"})
		return
	}

	entries, err := h.texts.GetMany(r.Context(), req.TextIDs)
	if err != nil {
		log.Printf("[handler] CreateQuiz text lookup error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load selected texts"})
		return
	}
	if len(entries) == 0 {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No matching texts found"})
		return
	}

	view, err := h.service.CreateSession(r.Context(),
		chapterLabel(entries), buildCorpus(entries), req.Count, req.Difficulty)
	if err != nil {
		var netErr *NetworkError
		var malErr *MalformedResponseError
		switch {
		case errors.As(err, &netErr):
			writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: "Question generation failed: " + netErr.Error()})
		case errors.As(err, &malErr):
			writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: "Question generation failed: " + malErr.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Question generation failed"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, models.GenerateQuizResponse{
		SessionID: view.SessionID,
		Status:    view.Status,
		Chapter:   view.Chapter,
		Total:     view.Total,
	})
}

// buildCorpus concatenates the selected texts into one labelled corpus.
func buildCorpus(entries []models.TextEntry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("=== ")
		b.WriteString(e.DisplayName())
		b.WriteString(" ===\n")
		b.WriteString(e.Content)
	}
	return b.String()
}

// chapterLabel picks the chapter the result will be recorded under. The
// student flow selects texts within one chapter, so the first entry decides.
func chapterLabel(entries []models.TextEntry) string {
	if entries[0].Chapter != "" {
		return entries[0].Chapter
	}
	return models.DefaultChapter
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	var req models.BeginQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.FeedbackMode == "" {
		req.FeedbackMode = models.FeedbackImmediate
	}

	h.runOp(w, r, func(s *Session) error { return s.Start(req.FeedbackMode) })
}

func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	h.runOp(w, r, func(s *Session) error { return s.Answer(req.Choice) })
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	h.runOp(w, r, func(s *Session) error { return s.Next() })
}

func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	h.runOp(w, r, func(s *Session) error { return s.Previous() })
}

func (h *Handler) Seek(w http.ResponseWriter, r *http.Request) {
	var req models.SeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	h.runOp(w, r, func(s *Session) error { return s.Seek(req.Index) })
}

func (h *Handler) Finish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.runOp(w, r, func(s *Session) error { return s.Finish(ctx) })
}

func (h *Handler) EnterReview(w http.ResponseWriter, r *http.Request) {
	h.runOp(w, r, func(s *Session) error { return s.EnterReview() })
}

func (h *Handler) ExitReview(w http.ResponseWriter, r *http.Request) {
	h.runOp(w, r, func(s *Session) error { return s.ExitReview() })
}

func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	h.runOp(w, r, func(s *Session) error { return s.Restart() })
}

func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	var req models.ExplainRequest
	if r.Body != nil {
		// Body is optional; ignore decode errors on an empty body.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	explanation, err := h.service.Explain(r.Context(), mux.Vars(r)["id"], req.Choice)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return
	}

	writeJSON(w, http.StatusOK, models.ExplainResponse{Explanation: explanation})
}

// runOp applies one state-machine operation and writes the updated view.
func (h *Handler) runOp(w http.ResponseWriter, r *http.Request, op func(*Session) error) {
	view, err := h.service.Update(mux.Vars(r)["id"], op)
	if err != nil {
		writeJSON(w, statusForSessionError(err), models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func statusForSessionError(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotConfiguring),
		errors.Is(err, ErrNotActive),
		errors.Is(err, ErrNotCompleted),
		errors.Is(err, ErrNotReviewing),
		errors.Is(err, ErrUnanswered),
		errors.Is(err, ErrNotLastQuestion):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
