package handlers

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/server/jwt"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/server/storage"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/validation"
	"github.com/Tychelis/virtual-tutor-system-sub001/pkg/api"
)

// AuthHandler обрабатывает запросы аутентификации
type AuthHandler struct {
	logger  *slog.Logger
	users   storage.UserStorage
	tokens  storage.TokenStorage
	codes   storage.CodeStorage
	jwtSvc  *jwt.Service
	codeTTL time.Duration
}

// NewAuthHandler создает новый handler для аутентификации
func NewAuthHandler(
	logger *slog.Logger,
	users storage.UserStorage,
	tokens storage.TokenStorage,
	codes storage.CodeStorage,
	jwtSvc *jwt.Service,
	codeTTL time.Duration,
) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		users:   users,
		tokens:  tokens,
		codes:   codes,
		jwtSvc:  jwtSvc,
		codeTTL: codeTTL,
	}
}

// Login обрабатывает POST /login
// Обменивает email и пароль на bearer токен
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode login request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateEmail(req.Email); err != nil {
		h.logger.WarnContext(ctx, "invalid email", slog.Any("error", err))
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		h.sendError(w, "password is required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "login failed: user not found", slog.String("email", req.Email))
			h.sendError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.logger.WarnContext(ctx, "login failed: invalid password", slog.String("email", req.Email))
		h.sendError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, expiresIn, err := h.jwtSvc.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Не критичная ошибка, логируем но не прерываем
	if err := h.users.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "user logged in successfully",
		slog.String("email", user.Email),
		slog.String("user_id", user.ID))

	h.sendJSON(w, api.LoginResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	}, http.StatusOK)
}

// Logout обрабатывает POST /logout
// Отзывает предъявленный токен
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tokenString, ok := h.bearerToken(w, r)
	if !ok {
		return
	}

	claims, err := h.jwtSvc.ValidateAccessToken(tokenString)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid access token", slog.Any("error", err))
		h.sendError(w, "invalid or expired access token", http.StatusUnauthorized)
		return
	}

	revoked := &models.RevokedToken{
		TokenHash: HashToken(tokenString),
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
		RevokedAt: time.Now(),
	}

	if err := h.tokens.RevokeToken(ctx, revoked); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke token", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user logged out successfully", slog.String("user_id", claims.UserID))

	w.WriteHeader(http.StatusNoContent)
}

// TokenStatus обрабатывает GET /token_status
// Всегда отвечает 200: для невалидного токена valid=false, expires_in=0
func (h *AuthHandler) TokenStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	invalid := api.TokenStatusResponse{Valid: false, ExpiresIn: 0}

	tokenString, ok := h.bearerToken(w, r)
	if !ok {
		return
	}

	claims, err := h.jwtSvc.ValidateAccessToken(tokenString)
	if err != nil {
		h.sendJSON(w, invalid, http.StatusOK)
		return
	}

	revoked, err := h.tokens.IsRevoked(ctx, HashToken(tokenString))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check token revocation", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if revoked {
		h.sendJSON(w, invalid, http.StatusOK)
		return
	}

	// Смена пароля отзывает все токены, выпущенные до cutoff
	cutoff, found, err := h.tokens.UserRevokedAt(ctx, claims.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check user revocation", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if found && claims.IssuedAt != nil && !claims.IssuedAt.Time.After(cutoff) {
		h.sendJSON(w, invalid, http.StatusOK)
		return
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 0 {
		remaining = 0
	}

	h.sendJSON(w, api.TokenStatusResponse{
		Valid:     true,
		ExpiresIn: int64(remaining.Seconds()),
	}, http.StatusOK)
}

// SendVerification обрабатывает POST /send_verification
// Генерирует одноразовый код для регистрации или смены пароля
func (h *AuthHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode send_verification request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateEmail(req.Email); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !models.ValidPurpose(req.Purpose) {
		h.sendError(w, "invalid purpose", http.StatusBadRequest)
		return
	}

	_, err := h.users.GetUserByEmail(ctx, req.Email)
	switch req.Purpose {
	case models.PurposeRegister:
		if err == nil {
			h.sendError(w, "email already registered", http.StatusConflict)
			return
		}
		if !errors.Is(err, storage.ErrUserNotFound) {
			h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
			return
		}
	case models.PurposeUpdatePassword:
		if errors.Is(err, storage.ErrUserNotFound) {
			// Не раскрываем, существует ли учетная запись
			h.sendJSON(w, api.SendVerificationResponse{
				Message: "If the email is registered, a verification code has been sent",
			}, http.StatusOK)
			return
		}
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	code, err := generateCode()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate verification code", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	vc := &models.VerificationCode{
		Code:      code,
		Email:     req.Email,
		Purpose:   req.Purpose,
		ExpiresAt: now.Add(h.codeTTL),
		CreatedAt: now,
	}

	if err := h.codes.SaveCode(ctx, vc); err != nil {
		h.logger.ErrorContext(ctx, "failed to save verification code", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// TODO: отправлять код почтой; пока код попадает только в лог сервера
	h.logger.InfoContext(ctx, "verification code issued",
		slog.String("email", req.Email),
		slog.String("purpose", req.Purpose),
		slog.String("code", code))

	h.sendJSON(w, api.SendVerificationResponse{
		Message: "If the email is registered, a verification code has been sent",
	}, http.StatusOK)
}

// Register обрабатывает POST /register
// Создает учетную запись по одноразовому коду подтверждения
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode register request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateEmail(req.Email); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateUsername(req.Username); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleStudent
	}
	// Администраторов через публичную регистрацию не создаем
	if !role.Valid() || role == models.RoleAdmin {
		h.sendError(w, "invalid role", http.StatusBadRequest)
		return
	}

	vc, err := h.codes.ConsumeCode(ctx, req.Code, models.PurposeRegister)
	if err != nil {
		if errors.Is(err, storage.ErrCodeNotFound) {
			h.sendError(w, "invalid verification code", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to consume verification code", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if vc.Email != req.Email {
		h.sendError(w, "invalid verification code", http.StatusBadRequest)
		return
	}
	if vc.Expired(time.Now()) {
		h.sendError(w, "verification code expired", http.StatusBadRequest)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(passwordHash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "user already exists", slog.String("email", req.Email))
			h.sendError(w, "email or username already taken", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("email", req.Email),
		slog.String("user_id", user.ID))

	h.sendJSON(w, api.RegisterResponse{
		UserID:  user.ID,
		Message: "User registered successfully",
	}, http.StatusCreated)
}

// UpdatePassword обрабатывает POST /update_password
// Меняет пароль по коду подтверждения и отзывает все токены пользователя
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode update_password request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	vc, err := h.codes.ConsumeCode(ctx, req.Code, models.PurposeUpdatePassword)
	if err != nil {
		if errors.Is(err, storage.ErrCodeNotFound) {
			h.sendError(w, "invalid verification code", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to consume verification code", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if vc.Expired(time.Now()) {
		h.sendError(w, "verification code expired", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(ctx, vc.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.sendError(w, "invalid verification code", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.users.UpdatePassword(ctx, user.ID, string(passwordHash)); err != nil {
		h.logger.ErrorContext(ctx, "failed to update password", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Все ранее выпущенные токены перестают действовать
	if err := h.tokens.RevokeUserTokens(ctx, user.ID, time.Now()); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke user tokens", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "password updated, all tokens revoked",
		slog.String("user_id", user.ID))

	w.WriteHeader(http.StatusNoContent)
}

// bearerToken извлекает токен из заголовка Authorization.
// При ошибке отправляет 401 и возвращает ok=false.
func (h *AuthHandler) bearerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		h.sendError(w, "Authorization header is required", http.StatusUnauthorized)
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		h.sendError(w, "invalid Authorization header format", http.StatusUnauthorized)
		return "", false
	}

	return parts[1], true
}

// generateCode создает 6-значный цифровой код через crypto/rand
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate random code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// sendJSON отправляет JSON ответ
func (h *AuthHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h *AuthHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}, statusCode)
}
