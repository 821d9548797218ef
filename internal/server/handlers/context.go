package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// contextKey является отдельным типом, чтобы ключи не пересекались
// с другими пакетами
type contextKey string

const (
	// UserIDKey хранит ID аутентифицированного пользователя
	UserIDKey contextKey = "user_id"
	// EmailKey хранит email аутентифицированного пользователя
	EmailKey contextKey = "email"
	// RoleKey хранит роль аутентифицированного пользователя
	RoleKey contextKey = "role"
)

// GetUserID извлекает ID пользователя из контекста запроса
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetEmail извлекает email пользователя из контекста запроса
func GetEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}

// GetRole извлекает роль пользователя из контекста запроса
func GetRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// HashToken возвращает SHA256 хеш токена в hex.
// В списке отзыва хранятся хеши, не сами токены.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
