package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/campusfound/campusfound/internal/auth"
	"github.com/campusfound/campusfound/internal/model"
	"github.com/campusfound/campusfound/internal/store"
)

// AuthHandler handles sign-up, sign-in, and sign-out.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
}

type signupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	FullName        string `json:"full_name"`
	Role            string `json:"role"`
	StudentIDNumber string `json:"student_id_number"`
	Semester        string `json:"semester"`
	Department      string `json:"department"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token   string         `json:"token"`
	Profile *model.Profile `json:"profile"`
}

// validateSignup checks the sign-up form, including the role-conditional
// profile attributes, and returns the first problem found.
func validateSignup(req *signupRequest) string {
	switch {
	case !strings.Contains(req.Email, "@"):
		return "invalid email address"
	case len(req.Password) < 6:
		return "password must be at least 6 characters"
	case len(strings.TrimSpace(req.FullName)) < 2:
		return "name must be at least 2 characters"
	}

	switch req.Role {
	case model.RoleStudent:
		if req.StudentIDNumber == "" || req.Semester == "" {
			return "student ID and semester are required for students"
		}
	case model.RoleStaff:
		if req.Department == "" {
			return "department is required for staff"
		}
	default:
		return "role must be student or staff"
	}

	return ""
}

// Signup handles POST /api/auth/signup. A successful sign-up returns a
// session token immediately.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateSignup(&req); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := store.GetProfileByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, "an account with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	profile := &model.Profile{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
	}
	if req.Role == model.RoleStudent {
		profile.StudentIDNumber = req.StudentIDNumber
		profile.Semester = req.Semester
	} else {
		profile.Department = req.Department
	}

	created, err := store.CreateProfile(r.Context(), h.DB, profile)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, created)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user signed up", "email", created.Email, "role", created.Role)
	jsonResponse(w, http.StatusCreated, sessionResponse{Token: token, Profile: created})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	profile, err := store.GetProfileByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if profile == nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		slog.Warn("login failed", "email", req.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, profile)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "email", profile.Email, "role", profile.Role)
	jsonResponse(w, http.StatusOK, sessionResponse{Token: token, Profile: profile})
}

// Logout handles POST /api/auth/logout by revoking the current token's JTI.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if claims.ID != "" && claims.ExpiresAt != nil {
		if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to revoke token")
			return
		}
	}

	slog.Info("user logged out", "email", claims.Email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me handles GET /api/auth/me, returning the signed-in user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	profile, err := store.GetProfile(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if profile == nil {
		jsonError(w, http.StatusNotFound, "profile not found")
		return
	}

	jsonResponse(w, http.StatusOK, profile)
}
