package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/qcm-trainer/backend/internal/models"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()
	h, err := NewHandler("test-signing-key", "open-sesame")
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h
}

func claimRole(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/auth/role", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ClaimRole(rec, req)
	return rec
}

func TestClaimRole_StudentNeedsNoPassphrase(t *testing.T) {
	rec := claimRole(t, testHandler(t), `{"role":"student"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.RoleResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Role != RoleStudent || resp.Token == "" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestClaimRole_TeacherWithPassphrase(t *testing.T) {
	rec := claimRole(t, testHandler(t), `{"role":"teacher","passphrase":"open-sesame"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.RoleResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Role != RoleTeacher {
		t.Errorf("expected teacher role, got %q", resp.Role)
	}
}

func TestClaimRole_TeacherWrongPassphrase(t *testing.T) {
	rec := claimRole(t, testHandler(t), `{"role":"teacher","passphrase":"guess"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestClaimRole_UnknownRole(t *testing.T) {
	rec := claimRole(t, testHandler(t), `{"role":"admin"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestMiddleware_TokenUnlocksTeacherGate(t *testing.T) {
	h := testHandler(t)

	rec := claimRole(t, h, `{"role":"teacher","passphrase":"open-sesame"}`)
	var resp models.RoleResponse
	json.NewDecoder(rec.Body).Decode(&resp)

	guarded := h.Middleware(http.HandlerFunc(h.RequireTeacher(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest("DELETE", "/texts/1", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	out := httptest.NewRecorder()
	guarded.ServeHTTP(out, req)

	if out.Code != http.StatusNoContent {
		t.Errorf("expected teacher token to pass the gate, got %d", out.Code)
	}
}

func TestMiddleware_MissingTokenIsStudent(t *testing.T) {
	h := testHandler(t)

	guarded := h.Middleware(http.HandlerFunc(h.RequireTeacher(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest("DELETE", "/texts/1", nil)
	out := httptest.NewRecorder()
	guarded.ServeHTTP(out, req)

	if out.Code != http.StatusForbidden {
		t.Errorf("expected 403 without a token, got %d", out.Code)
	}
}

func TestMiddleware_StudentTokenCannotMutate(t *testing.T) {
	h := testHandler(t)

	rec := claimRole(t, h, `{"role":"student"}`)
	var resp models.RoleResponse
	json.NewDecoder(rec.Body).Decode(&resp)

	guarded := h.Middleware(http.HandlerFunc(h.RequireTeacher(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest("POST", "/texts", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	out := httptest.NewRecorder()
	guarded.ServeHTTP(out, req)

	if out.Code != http.StatusForbidden {
		t.Errorf("expected 403 for student token, got %d", out.Code)
	}
}

func TestMiddleware_TamperedTokenFallsBackToStudent(t *testing.T) {
	h := testHandler(t)

	other, _ := NewHandler("different-key", "open-sesame")
	token, _ := other.generateToken(RoleTeacher)

	guarded := h.Middleware(http.HandlerFunc(h.RequireTeacher(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest("POST", "/texts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	out := httptest.NewRecorder()
	guarded.ServeHTTP(out, req)

	if out.Code != http.StatusForbidden {
		t.Errorf("expected 403 for token signed with another key, got %d", out.Code)
	}
}
