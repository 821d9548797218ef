package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/server/storage"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/validation"
	"github.com/Tychelis/virtual-tutor-system-sub001/pkg/api"
)

// ProfileHandler обрабатывает запросы профиля пользователя.
// Оба эндпоинта работают за auth middleware: user_id берется из контекста.
type ProfileHandler struct {
	logger *slog.Logger
	users  storage.UserStorage
}

// NewProfileHandler создает новый handler для профиля
func NewProfileHandler(logger *slog.Logger, users storage.UserStorage) *ProfileHandler {
	return &ProfileHandler{
		logger: logger,
		users:  users,
	}
}

// Get обрабатывает GET /profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.sendError(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, user.Profile(), http.StatusOK)
}

// Update обрабатывает PATCH /profile
// Меняет только поля, присутствующие в запросе
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode profile update", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username != nil {
		if err := validation.ValidateUsername(*req.Username); err != nil {
			h.sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	user, err := h.users.UpdateProfile(ctx, userID, models.UserUpdate{
		Username: req.Username,
		Avatar:   req.Avatar,
		FullName: req.FullName,
		Bio:      req.Bio,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUserNotFound):
			h.sendError(w, "user not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrUserAlreadyExists):
			h.sendError(w, "username already taken", http.StatusConflict)
		default:
			h.logger.ErrorContext(ctx, "failed to update profile", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.InfoContext(ctx, "profile updated", slog.String("user_id", userID))

	h.sendJSON(w, user.Profile(), http.StatusOK)
}

func (h *ProfileHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

func (h *ProfileHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}, statusCode)
}
