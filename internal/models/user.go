package models

import "time"

// Role определяет роль пользователя в системе
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

// Valid проверяет, что роль известна системе
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return true
	}
	return false
}

// UserProfile представляет профиль пользователя в том виде,
// в котором клиент хранит его под ключом "user"
type UserProfile struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Role     Role   `json:"role"`
	FullName string `json:"full_name"`
	Bio      string `json:"bio"`
}

// UserUpdate описывает частичное изменение профиля
// nil-поля остаются без изменений
type UserUpdate struct {
	Username *string
	Avatar   *string
	FullName *string
	Bio      *string
}

// Apply возвращает копию профиля с применёнными изменениями
func (u UserUpdate) Apply(p UserProfile) UserProfile {
	if u.Username != nil {
		p.Username = *u.Username
	}
	if u.Avatar != nil {
		p.Avatar = *u.Avatar
	}
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	return p
}

// User представляет учётную запись на сервере
type User struct {
	ID           string    `json:"id"`            // UUID пользователя
	Email        string    `json:"email"`         // уникальный email
	Username     string    `json:"username"`      // отображаемое имя
	PasswordHash string    `json:"-"`             // bcrypt хеш пароля
	Role         Role      `json:"role"`          // student | tutor | admin
	Avatar       string    `json:"avatar"`        // ссылка на аватар
	FullName     string    `json:"full_name"`     // полное имя
	Bio          string    `json:"bio"`           // о себе
	CreatedAt    time.Time `json:"created_at"`    // время создания
	UpdatedAt    time.Time `json:"updated_at"`    // время последнего обновления
	LastLoginAt  time.Time `json:"last_login_at"` // время последнего входа (zero = не входил)
}

// Profile возвращает клиентское представление учётной записи
func (u *User) Profile() UserProfile {
	return UserProfile{
		Email:    u.Email,
		Username: u.Username,
		Avatar:   u.Avatar,
		Role:     u.Role,
		FullName: u.FullName,
		Bio:      u.Bio,
	}
}

// Назначения одноразовых кодов подтверждения
const (
	PurposeRegister       = "register"
	PurposeUpdatePassword = "update_password"
)

// ValidPurpose проверяет назначение кода подтверждения
func ValidPurpose(p string) bool {
	return p == PurposeRegister || p == PurposeUpdatePassword
}

// VerificationCode представляет одноразовый код подтверждения email
type VerificationCode struct {
	Code      string    `json:"code"`       // 6-значный код
	Email     string    `json:"email"`      // email, которому выдан код
	Purpose   string    `json:"purpose"`    // register | update_password
	ExpiresAt time.Time `json:"expires_at"` // время истечения
	CreatedAt time.Time `json:"created_at"` // время создания
}

// Expired сообщает, истёк ли код
func (c *VerificationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// RevokedToken представляет отозванный bearer токен
// Хранится хеш токена, не сам токен
type RevokedToken struct {
	TokenHash string    `json:"token_hash"` // SHA256 хеш токена (hex)
	UserID    string    `json:"user_id"`    // владелец токена
	ExpiresAt time.Time `json:"expires_at"` // когда запись можно удалить
	RevokedAt time.Time `json:"revoked_at"` // время отзыва
}
