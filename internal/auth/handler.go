package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/qcm-trainer/backend/internal/models"
)

// Roles the app distinguishes. Students get read access; teachers can
// edit the library.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

type contextKey string

const roleContextKey contextKey = "role"

// Handler issues role tokens. There are no user accounts: the app is
// shared, and a single passphrase unlocks the teacher role.
type Handler struct {
	jwtSecret      []byte
	passphraseHash []byte
}

// NewHandler hashes the teacher passphrase once at startup so the plain
// value never sits in memory past construction.
func NewHandler(jwtSecret, teacherPassphrase string) (*Handler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(teacherPassphrase), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Handler{jwtSecret: []byte(jwtSecret), passphraseHash: hash}, nil
}

// ClaimRole exchanges a role request for a signed token. The student role
// is free; the teacher role requires the passphrase.
func (h *Handler) ClaimRole(w http.ResponseWriter, r *http.Request) {
	var req models.RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	role := strings.TrimSpace(strings.ToLower(req.Role))
	switch role {
	case RoleStudent:
	case RoleTeacher:
		if err := bcrypt.CompareHashAndPassword(h.passphraseHash, []byte(req.Passphrase)); err != nil {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid passphrase"})
			return
		}
	default:
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Role must be student or teacher"})
		return
	}

	token, err := h.generateToken(role)
	if err != nil {
		log.Printf("Error signing role token: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to generate token"})
		return
	}

	writeJSON(w, http.StatusOK, models.RoleResponse{Token: token, Role: role})
}

// Middleware parses the bearer token, if any, and stores the role in the
// request context. Requests without a token pass through as students.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := RoleStudent
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			if parsed, err := h.parseRole(strings.TrimPrefix(header, "Bearer ")); err == nil {
				role = parsed
			}
		}
		ctx := context.WithValue(r.Context(), roleContextKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireTeacher rejects requests whose token does not carry the teacher
// role.
func (h *Handler) RequireTeacher(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if RoleFromContext(r.Context()) != RoleTeacher {
			writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "Teacher role required"})
			return
		}
		next(w, r)
	}
}

func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleContextKey).(string); ok {
		return role
	}
	return RoleStudent
}

func (h *Handler) generateToken(role string) (string, error) {
	claims := jwt.MapClaims{
		"role": role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

func (h *Handler) parseRole(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", jwt.ErrTokenUnverifiable
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}
	role, ok := claims["role"].(string)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}
	return role, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
