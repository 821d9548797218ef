package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgapi "github.com/Tychelis/virtual-tutor-system-sub001/pkg/api"
)

func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req pkgapi.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.com", req.Email)
		assert.Equal(t, "password123", req.Password)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pkgapi.LoginResponse{Token: "tok1", ExpiresIn: 3600})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Login(context.Background(), pkgapi.LoginRequest{
		Email:    "a@b.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok1", resp.Token)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
}

func TestClient_LoginError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(pkgapi.ErrorResponse{
			Error:   "Unauthorized",
			Message: "invalid credentials",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Login(context.Background(), pkgapi.LoginRequest{
		Email:    "a@b.com",
		Password: "wrong",
	})
	require.Error(t, err)

	// Структурированная ошибка достается через errors.As
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid credentials", apiErr.Message)
}

func TestClient_Logout(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/logout", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	require.NoError(t, client.Logout(context.Background(), "tok1"))
	assert.Equal(t, "Bearer tok1", gotAuth)
}

func TestClient_TokenStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/token_status", r.URL.Path)
		assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pkgapi.TokenStatusResponse{Valid: true, ExpiresIn: 120})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.TokenStatus(context.Background(), "tok1")
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.Equal(t, int64(120), resp.ExpiresIn)
}

func TestClient_Profile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/profile", r.URL.Path)
		assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"a@b.com","username":"student1","role":"student"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	user, err := client.Profile(context.Background(), "tok1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, "student1", user.Username)
}

func TestClient_UpdateProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/profile", r.URL.Path)
		assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))

		// nil-поля не сериализуются
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, map[string]any{"bio": "Algebra tutor"}, raw)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"a@b.com","username":"student1","role":"student","bio":"Algebra tutor"}`))
	}))
	defer server.Close()

	bio := "Algebra tutor"
	client := NewClient(server.URL)
	user, err := client.UpdateProfile(context.Background(), "tok1", pkgapi.ProfileUpdateRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Algebra tutor", user.Bio)
}

func TestClient_SendVerification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/send_verification", r.URL.Path)

		var req pkgapi.SendVerificationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.com", req.Email)
		assert.Equal(t, "register", req.Purpose)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pkgapi.SendVerificationResponse{Message: "code sent"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.SendVerification(context.Background(), pkgapi.SendVerificationRequest{
		Email:   "a@b.com",
		Purpose: "register",
	})
	require.NoError(t, err)
	assert.Equal(t, "code sent", resp.Message)
}

func TestClient_ErrorWithoutJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.TokenStatus(context.Background(), "tok1")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	// Сырое тело попадает в Message как есть
	assert.Contains(t, apiErr.Message, "upstream exploded")
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL)
	_, err := client.Profile(ctx, "tok1")
	assert.Error(t, err)
}
