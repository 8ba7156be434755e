package results

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/qcm-trainer/backend/internal/models"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/results", h.ListResults).Methods("GET")
}

func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.ListAll(r.Context())
	if err != nil {
		log.Printf("Error listing results: %v", err)
		writeJSON(w, http.StatusInternalServerError,
			models.ErrorResponse{Error: "failed to list results"})
		return
	}
	if results == nil {
		results = []models.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"total":   len(results),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
