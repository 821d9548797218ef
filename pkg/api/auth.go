package api

// LoginRequest представляет запрос на вход по email и паролю
type LoginRequest struct {
	Email    string `json:"email"`    // email пользователя
	Password string `json:"password"` // пароль (plaintext, только по TLS)
}

// LoginResponse представляет ответ с bearer токеном
// Профиль пользователя запрашивается отдельным запросом GET /profile
type LoginResponse struct {
	Token     string `json:"token"`      // opaque bearer token
	ExpiresIn int64  `json:"expires_in"` // время жизни токена в секундах
}

// TokenStatusResponse представляет ответ проверки валидности токена
// Для истекшего, отозванного или некорректного токена valid=false и expires_in=0
type TokenStatusResponse struct {
	Valid     bool  `json:"valid"`      // токен принят сервером
	ExpiresIn int64 `json:"expires_in"` // оставшееся время жизни в секундах
}

// SendVerificationRequest представляет запрос одноразового кода подтверждения
type SendVerificationRequest struct {
	Email   string `json:"email"`   // куда отправить код
	Purpose string `json:"purpose"` // register | update_password
}

// SendVerificationResponse представляет ответ на запрос кода
type SendVerificationResponse struct {
	Message string `json:"message"`
}

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code"`           // одноразовый код из send_verification
	Role     string `json:"role,omitempty"` // student (по умолчанию) | tutor
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	UserID  string `json:"user_id"` // UUID пользователя
	Message string `json:"message"`
}

// UpdatePasswordRequest представляет запрос на смену пароля по коду подтверждения
// Успешная смена отзывает все выданные токены пользователя
type UpdatePasswordRequest struct {
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
