package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/qcm-trainer/backend/internal/models"
)

// Handler exposes the text library over HTTP. Read endpoints are open;
// mutations go behind the teacher gate wired in by the caller.
type Handler struct {
	store     *Store
	extractor *MetadataExtractor
}

func NewHandler(store *Store, extractor *MetadataExtractor) *Handler {
	return &Handler{store: store, extractor: extractor}
}

// maxTextBody caps uploaded document bodies at 2 MB.
const maxTextBody = 2 << 20

// RegisterRoutes mounts the library endpoints. guard wraps the handlers
// that modify the library.
func (h *Handler) RegisterRoutes(r *mux.Router, guard func(http.HandlerFunc) http.HandlerFunc) {
	r.HandleFunc("/texts", h.ListTexts).Methods("GET")
	r.HandleFunc("/texts", guard(h.CreateText)).Methods("POST")
	r.HandleFunc("/texts/import", guard(h.ImportText)).Methods("POST")
	r.HandleFunc("/texts/{id}", h.GetText).Methods("GET")
	r.HandleFunc("/texts/{id}", guard(h.UpdateText)).Methods("PUT")
	r.HandleFunc("/texts/{id}", guard(h.DeleteText)).Methods("DELETE")
	r.HandleFunc("/chapters", h.ListChapters).Methods("GET")
}

func (h *Handler) ListTexts(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	chapter := r.URL.Query().Get("chapter")

	entries, err := h.store.List(r.Context(), search, chapter)
	if err != nil {
		log.Printf("Error listing texts: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list texts")
		return
	}
	if entries == nil {
		entries = []models.TextEntry{}
	}
	writeJSON(w, http.StatusOK, models.TextListResponse{Texts: entries, Total: len(entries)})
}

func (h *Handler) GetText(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entry, err := h.store.Get(r.Context(), id)
	if err == sql.ErrNoRows {
		writeJSONError(w, http.StatusNotFound, "text not found")
		return
	}
	if err != nil {
		log.Printf("Error fetching text %s: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to fetch text")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) CreateText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTextBody)

	var req models.CreateTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSONError(w, http.StatusBadRequest, "content is required")
		return
	}

	entry, err := h.store.Create(r.Context(), req)
	if err != nil {
		log.Printf("Error creating text: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to create text")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) UpdateText(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	r.Body = http.MaxBytesReader(w, r.Body, maxTextBody)

	var req models.UpdateTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		writeJSONError(w, http.StatusBadRequest, "content cannot be empty")
		return
	}

	entry, err := h.store.Update(r.Context(), id, req)
	if err == sql.ErrNoRows {
		writeJSONError(w, http.StatusNotFound, "text not found")
		return
	}
	if err != nil {
		log.Printf("Error updating text %s: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to update text")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) DeleteText(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.store.Delete(r.Context(), id)
	if err == sql.ErrNoRows {
		writeJSONError(w, http.StatusNotFound, "text not found")
		return
	}
	if err != nil {
		log.Printf("Error deleting text %s: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to delete text")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportText pre-fills metadata for a raw document: the model guesses
// author, title, chapter and notions, and the teacher reviews the result
// before saving it as a regular text.
func (h *Handler) ImportText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTextBody)

	var req models.ImportTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSONError(w, http.StatusBadRequest, "content is required")
		return
	}

	meta, status := h.extractor.Extract(r.Context(), req.Filename, req.Content, req.ChapterHint)

	writeJSON(w, http.StatusOK, models.ImportTextResponse{
		Filename:  req.Filename,
		Status:    status,
		Chapter:   meta.Chapter,
		Author:    meta.Author,
		WorkTitle: meta.WorkTitle,
		Notions:   meta.Notions,
		Content:   req.Content,
		WordCount: WordCount(req.Content),
	})
}

func (h *Handler) ListChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := h.store.Chapters(r.Context())
	if err != nil {
		log.Printf("Error listing chapters: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list chapters")
		return
	}
	if chapters == nil {
		chapters = []models.ChapterCount{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chapters": chapters})
}

// GetMany satisfies the quiz handler's text provider.
func (h *Handler) GetMany(ctx context.Context, ids []string) ([]models.TextEntry, error) {
	return h.store.GetMany(ctx, ids)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}
