package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectday/navigator-backend/internal/config"
	"github.com/projectday/navigator-backend/internal/middleware"
	"github.com/projectday/navigator-backend/internal/services"
	"github.com/projectday/navigator-backend/internal/storage"
	"github.com/projectday/navigator-backend/pkg/validator"
)

const handlerTestCatalog = `id,name,building,floor,desc,lat,lon
1,Robotics Lab,Science Block,Ground Floor,Student robotics demos,11.067210,76.916512
2,Art Gallery,Main Block,First Floor,Paintings and crafts,11.067005,76.916220
3,Physics Expo,Science Block,First Floor,Working models of optics,11.067310,76.916601
`

type testEnv struct {
	router   *gin.Engine
	feedback *storage.FeedbackStore
	otp      *services.OTPService
	sessions *services.SessionService
	cfg      *config.Config
}

// setupTestRouter wires the full API the same way cmd/server does, over
// temp-dir CSV files.
func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	venuesPath := filepath.Join(dir, "venues.csv")
	require.NoError(t, os.WriteFile(venuesPath, []byte(handlerTestCatalog), 0o644))

	catalog, err := storage.NewVenueCatalog(venuesPath)
	require.NoError(t, err)

	feedbackStore, err := storage.NewFeedbackStore(filepath.Join(dir, "feedback.csv"), catalog)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		Event: config.EventConfig{
			Name:      "Project Day 2025 Navigator",
			VenueName: "Yuvabharathi Public School",
			CenterLat: 11.067095,
			CenterLon: 76.916370,
		},
		OTP: config.OTPConfig{Mode: "demo", DemoCode: "123456", ExpiryMinutes: 5, MaxAttempts: 3},
	}

	phoneValidator := validator.NewPhoneValidator()
	nameValidator := validator.NewNameValidator()
	otpService := services.NewOTPService(cfg.OTP.Mode, cfg.OTP.DemoCode, cfg.OTPExpiry(), cfg.OTP.MaxAttempts, logger)
	rateLimitService := services.NewRateLimitService(services.DefaultRateLimitConfig())
	sessionService := services.NewSessionService(catalog, feedbackStore, otpService, phoneValidator, nameValidator, logger)

	authHandler := NewAuthHandler(sessionService, otpService, rateLimitService, phoneValidator, cfg, logger)
	venueHandler := NewVenueHandler(catalog)
	sessionHandler := NewSessionHandler(sessionService, cfg)
	screenHandler := NewScreenHandler(catalog, cfg)
	healthHandler := NewHealthHandler(catalog, sessionService, "test")

	router := gin.New()
	sessionRequired := middleware.SessionMiddleware(sessionService, logger)
	sessionOptional := middleware.OptionalSession(sessionService)

	v1 := router.Group("/api/v1")
	v1.GET("/health", healthHandler.Health)
	v1.POST("/auth/send-otp", authHandler.SendOTP)
	v1.POST("/auth/verify-otp", authHandler.VerifyOTP)
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/logout", sessionRequired, authHandler.Logout)
	v1.GET("/venues", sessionRequired, venueHandler.List)
	v1.GET("/venues/:id", sessionRequired, venueHandler.Get)
	v1.GET("/session", sessionRequired, sessionHandler.Get)
	v1.GET("/session/screen", sessionOptional, screenHandler.Screen)
	v1.POST("/session/select-venue", sessionRequired, sessionHandler.SelectVenue)
	v1.POST("/session/arrive", sessionRequired, sessionHandler.MarkArrived)
	v1.POST("/session/feedback", sessionRequired, sessionHandler.SubmitFeedback)

	return &testEnv{
		router:   router,
		feedback: feedbackStore,
		otp:      otpService,
		sessions: sessionService,
		cfg:      cfg,
	}
}

// doJSON performs a request with an optional JSON body and session token
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.SessionTokenHeader, token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login logs a visitor in without OTP and returns the session token
func (e *testEnv) login(t *testing.T, name, phone string) string {
	t.Helper()

	w := e.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"name":         name,
		"phone_number": phone,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionToken)
	return resp.SessionToken
}

func TestSendOTP_DemoModeReturnsCode(t *testing.T) {
	env := setupTestRouter(t)

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/send-otp", "", gin.H{
		"phone_number": "9876543210",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp SendOTPResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "123456", resp.OTP)
	assert.Equal(t, "9876543210", resp.Phone)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
	assert.Greater(t, resp.ExpiresIn, 0)
}

func TestSendOTP_InvalidPhone(t *testing.T) {
	env := setupTestRouter(t)

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/send-otp", "", gin.H{
		"phone_number": "12345",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_phone", resp.Error)
}

func TestSendOTP_RateLimited(t *testing.T) {
	env := setupTestRouter(t)

	for i := 0; i < 3; i++ {
		w := env.doJSON(t, http.MethodPost, "/api/v1/auth/send-otp", "", gin.H{
			"phone_number": "9876543210",
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/send-otp", "", gin.H{
		"phone_number": "9876543210",
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rate_limit_exceeded", resp["error"])
	assert.Equal(t, "phone", resp["type"])
}

func TestVerifyOTP(t *testing.T) {
	env := setupTestRouter(t)

	t.Run("Without requesting first", func(t *testing.T) {
		w := env.doJSON(t, http.MethodPost, "/api/v1/auth/verify-otp", "", gin.H{
			"phone_number": "9876543210",
			"otp":          "123456",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "otp_not_found", resp.Error)
	})

	t.Run("Wrong code", func(t *testing.T) {
		w := env.doJSON(t, http.MethodPost, "/api/v1/auth/send-otp", "", gin.H{"phone_number": "9876543210"})
		require.Equal(t, http.StatusOK, w.Code)

		w = env.doJSON(t, http.MethodPost, "/api/v1/auth/verify-otp", "", gin.H{
			"phone_number": "9876543210",
			"otp":          "000000",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Correct code", func(t *testing.T) {
		w := env.doJSON(t, http.MethodPost, "/api/v1/auth/verify-otp", "", gin.H{
			"phone_number": "9876543210",
			"otp":          "123456",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["verified"])
	})
}

func TestLogin_Success(t *testing.T) {
	env := setupTestRouter(t)

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"name":         "Asha",
		"phone_number": "9876543210",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionToken)
	assert.Equal(t, "Asha", resp.Name)
	assert.Equal(t, "9876543210", resp.Phone)
	assert.Equal(t, "browsing", string(resp.State))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		name  string
		body  gin.H
		label string
	}{
		{"invalid_credentials", gin.H{"name": "Asha123", "phone_number": "9876543210"}, "Bad name"},
		{"invalid_credentials", gin.H{"name": "Asha", "phone_number": "1234567890"}, "Bad phone"},
		{"validation_error", gin.H{"name": "Asha"}, "Missing phone"},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			w := env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.name, resp.Error)
		})
	}
}

func TestLogin_OTPFlow(t *testing.T) {
	env := setupTestRouter(t)

	// Login with OTP enabled but never verified fails
	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"name":         "Asha",
		"phone_number": "9876543210",
		"otp_enabled":  true,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Request and verify, then login succeeds
	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/send-otp", "", gin.H{"phone_number": "9876543210"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/verify-otp", "", gin.H{
		"phone_number": "9876543210",
		"otp":          "123456",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"name":         "Asha",
		"phone_number": "9876543210",
		"otp_enabled":  true,
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The verified OTP was consumed: a second OTP login needs a new code
	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"name":         "Asha",
		"phone_number": "9876543210",
		"otp_enabled":  true,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	env := setupTestRouter(t)
	token := env.login(t, "Asha", "9876543210")

	w := env.doJSON(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The token no longer works
	w = env.doJSON(t, http.MethodGet, "/api/v1/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Logging out again with the dead token is also rejected by the
	// middleware; the session itself is already gone
	w = env.doJSON(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	env := setupTestRouter(t)

	w := env.doJSON(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, float64(3), resp["venues"])
}
