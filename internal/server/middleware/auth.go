package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/server/handlers"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/server/jwt"
	"github.com/Tychelis/virtual-tutor-system-sub001/internal/server/storage"
)

// AuthMiddleware создает middleware для проверки bearer токена.
// Токен должен быть подписан, не истекшим и не отозванным.
func AuthMiddleware(logger *slog.Logger, jwtSvc *jwt.Service, tokens storage.TokenStorage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header")
				http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
				return
			}

			// Ожидаем формат: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("Invalid Authorization header format")
				http.Error(w, "Unauthorized: invalid token format", http.StatusUnauthorized)
				return
			}

			tokenString := parts[1]

			claims, err := jwtSvc.ValidateAccessToken(tokenString)
			if err != nil {
				logger.Warn("Invalid access token", "error", err)
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			// Проверяем индивидуальный отзыв
			revoked, err := tokens.IsRevoked(r.Context(), handlers.HashToken(tokenString))
			if err != nil {
				logger.Error("Failed to check token revocation", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if revoked {
				logger.Warn("Revoked token used", "user_id", claims.UserID)
				http.Error(w, "Unauthorized: token revoked", http.StatusUnauthorized)
				return
			}

			// Смена пароля отзывает все токены, выпущенные до cutoff
			cutoff, found, err := tokens.UserRevokedAt(r.Context(), claims.UserID)
			if err != nil {
				logger.Error("Failed to check user revocation", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if found && claims.IssuedAt != nil && !claims.IssuedAt.Time.After(cutoff) {
				logger.Warn("Token issued before revocation cutoff", "user_id", claims.UserID)
				http.Error(w, "Unauthorized: token revoked", http.StatusUnauthorized)
				return
			}

			// Добавляем данные из токена в контекст
			ctx := context.WithValue(r.Context(), handlers.UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, handlers.EmailKey, claims.Email)
			ctx = context.WithValue(ctx, handlers.RoleKey, claims.Role)

			logger.Debug("User authenticated", "user_id", claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
