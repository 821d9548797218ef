package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Tychelis/virtual-tutor-system-sub001/internal/models"
	"github.com/Tychelis/virtual-tutor-system-sub001/pkg/api"
)

// APIError represents a structured error answer from the backend.
// Поймать можно через errors.As; Message предназначен пользователю.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Client представляет HTTP клиент для взаимодействия с Auth API
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Login обменивает учетные данные на bearer токен
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	var resp api.LoginResponse
	if err := c.doRequest(ctx, http.MethodPost, "/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Logout отзывает токен на сервере
func (c *Client) Logout(ctx context.Context, token string) error {
	if err := c.doRequest(ctx, http.MethodPost, "/logout", token, nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// TokenStatus проверяет валидность и остаток времени жизни токена
func (c *Client) TokenStatus(ctx context.Context, token string) (*api.TokenStatusResponse, error) {
	var resp api.TokenStatusResponse
	if err := c.doRequest(ctx, http.MethodGet, "/token_status", token, nil, &resp); err != nil {
		return nil, fmt.Errorf("token status request failed: %w", err)
	}
	return &resp, nil
}

// SendVerification запрашивает одноразовый код подтверждения на email
func (c *Client) SendVerification(ctx context.Context, req api.SendVerificationRequest) (*api.SendVerificationResponse, error) {
	var resp api.SendVerificationResponse
	if err := c.doRequest(ctx, http.MethodPost, "/send_verification", "", req, &resp); err != nil {
		return nil, fmt.Errorf("send verification request failed: %w", err)
	}
	return &resp, nil
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/register", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// UpdatePassword меняет пароль по коду подтверждения
// Сервер отзывает все выданные токены пользователя
func (c *Client) UpdatePassword(ctx context.Context, req api.UpdatePasswordRequest) error {
	if err := c.doRequest(ctx, http.MethodPost, "/update_password", "", req, nil); err != nil {
		return fmt.Errorf("update password request failed: %w", err)
	}
	return nil
}

// Profile загружает профиль владельца токена
func (c *Client) Profile(ctx context.Context, token string) (*models.UserProfile, error) {
	var resp models.UserProfile
	if err := c.doRequest(ctx, http.MethodGet, "/profile", token, nil, &resp); err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	return &resp, nil
}

// UpdateProfile частично обновляет профиль владельца токена
func (c *Client) UpdateProfile(ctx context.Context, token string, req api.ProfileUpdateRequest) (*models.UserProfile, error) {
	var resp models.UserProfile
	if err := c.doRequest(ctx, http.MethodPatch, "/profile", token, req, &resp); err != nil {
		return nil, fmt.Errorf("update profile request failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос
// token добавляется заголовком Authorization: Bearer, если не пуст
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result interface{}) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}

		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			apiErr.Message = errResp.Message
		} else {
			apiErr.Message = string(respBody)
		}
		return apiErr
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
