package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/projectday/navigator-backend/internal/config"
	"github.com/projectday/navigator-backend/internal/middleware"
	"github.com/projectday/navigator-backend/internal/models"
	"github.com/projectday/navigator-backend/internal/services"
	"github.com/projectday/navigator-backend/internal/utils"
	"github.com/projectday/navigator-backend/pkg/validator"
)

// AuthHandler handles visitor login, logout, and the demo OTP flow
type AuthHandler struct {
	sessionService   *services.SessionService
	otpService       *services.OTPService
	rateLimitService *services.RateLimitService
	phoneValidator   *validator.PhoneValidator
	config           *config.Config
	logger           *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	sessionService *services.SessionService,
	otpService *services.OTPService,
	rateLimitService *services.RateLimitService,
	phoneValidator *validator.PhoneValidator,
	cfg *config.Config,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		sessionService:   sessionService,
		otpService:       otpService,
		rateLimitService: rateLimitService,
		phoneValidator:   phoneValidator,
		config:           cfg,
		logger:           logger,
	}
}

// SendOTPRequest represents the request to send OTP
type SendOTPRequest struct {
	Phone string `json:"phone_number" binding:"required"`
}

// SendOTPResponse represents the response after sending OTP
type SendOTPResponse struct {
	Message   string    `json:"message"`
	Phone     string    `json:"phone"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int       `json:"expires_in_seconds"`
	OTP       string    `json:"otp,omitempty"` // demo mode only; no SMS is ever sent
}

// VerifyOTPRequest represents the request to verify OTP
type VerifyOTPRequest struct {
	Phone string `json:"phone_number" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// LoginRequest represents the visitor login request
type LoginRequest struct {
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone_number" binding:"required"`
	OTPEnabled bool   `json:"otp_enabled"`
}

// LoginResponse represents the response after a successful login
type LoginResponse struct {
	Message      string              `json:"message"`
	SessionToken string              `json:"session_token"`
	Name         string              `json:"name"`
	Phone        string              `json:"phone"`
	State        models.SessionState `json:"state"`
}

// SendOTP handles POST /api/v1/auth/send-otp
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	phone, err := h.phoneValidator.Validate(req.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_phone",
			Message: err.Error(),
		})
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	if err := h.rateLimitService.CheckOTPRateLimit(phone, clientIP); err != nil {
		if rateLimitErr, ok := err.(*services.RateLimitError); ok {
			h.logger.WithFields(logrus.Fields{
				"phone": phone,
				"ip":    clientIP,
				"type":  rateLimitErr.Type,
			}).Warn("OTP rate limit exceeded")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     rateLimitErr.Message,
				"retry_after": rateLimitErr.RetryAfter,
				"type":        rateLimitErr.Type,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "rate_limit_check_failed",
			Message: "Failed to check rate limit",
		})
		return
	}

	otp, expiresAt, err := h.otpService.Generate(phone, clientIP, userAgent)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "otp_generation_failed",
			Message: "Failed to generate OTP",
		})
		return
	}

	h.rateLimitService.RecordOTPRequest(phone, clientIP)

	resp := SendOTPResponse{
		Message:   "OTP generated. No SMS is sent by this demo service.",
		Phone:     phone,
		ExpiresAt: expiresAt,
		ExpiresIn: int(time.Until(expiresAt).Seconds()),
	}

	// Demo mode surfaces the code in the response, like the original
	// on-screen hint
	if h.otpService.Mode() == services.OTPModeDemo {
		resp.OTP = otp
		resp.Message = "OTP generated (demo). Use the code below to verify."
	}

	c.JSON(http.StatusOK, resp)
}

// VerifyOTP handles POST /api/v1/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	phone, err := h.phoneValidator.Validate(req.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_phone",
			Message: err.Error(),
		})
		return
	}

	if err := h.otpService.Verify(phone, req.OTP); err != nil {
		status := http.StatusUnauthorized
		code := "otp_invalid"
		switch err {
		case services.ErrNoOTPFound:
			code = "otp_not_found"
		case services.ErrOTPExpired:
			code = "otp_expired"
		case services.ErrMaxAttemptsExceeded:
			status = http.StatusTooManyRequests
			code = "otp_max_attempts"
		case services.ErrOTPAlreadyUsed:
			code = "otp_already_used"
		}

		c.JSON(status, ErrorResponse{
			Error:   code,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "OTP verified. You can now log in.",
		"phone":    phone,
		"verified": true,
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	session, err := h.sessionService.Login(services.LoginInput{
		Name:       req.Name,
		Phone:      req.Phone,
		OTPEnabled: req.OTPEnabled,
		IPAddress:  utils.GetRealIP(c),
		Device:     utils.ParseUserAgent(utils.GetUserAgent(c)),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Message:      "Welcome, " + session.Name,
		SessionToken: session.Token,
		Name:         session.Name,
		Phone:        session.Phone,
		State:        session.State,
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Session token is required",
		})
		return
	}

	h.sessionService.Logout(session.Token)

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}
