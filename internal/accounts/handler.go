package accounts

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type Handler struct {
	repo   *Repository
	tokens *TokenMaker
	logger *slog.Logger
}

func NewHandler(repo *Repository, tokens *TokenMaker, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, tokens: tokens, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		h.writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := h.repo.CreateUser(r.Context(), req.Name, req.Email, string(hash))
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			h.writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("failed to create user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	h.writeJSON(w, http.StatusCreated, map[string]any{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.repo.UserByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("failed to look up user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID)
	h.writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	user, err := h.repo.UserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get profile", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if user == nil {
		h.writeError(w, http.StatusNotFound, "user not found")
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var update ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if update.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	user, err := h.repo.UpdateProfile(r.Context(), userID, update)
	if err != nil {
		h.logger.Error("failed to update profile", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if user == nil {
		h.writeError(w, http.StatusNotFound, "user not found")
		return
	}

	h.logger.Info("profile updated", "user_id", userID)
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
