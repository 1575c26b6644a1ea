package services

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitService throttles OTP generation per phone number and per client
// IP using in-memory sliding windows.
type RateLimitService struct {
	config RateLimitConfig

	mu       sync.Mutex
	requests map[string][]time.Time
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxPhoneRequests int           // Max OTP requests per phone
	PhoneWindow      time.Duration // Time window for phone rate limit
	MaxIPRequests    int           // Max OTP requests per IP
	IPWindow         time.Duration // Time window for IP rate limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxPhoneRequests: 3,                // 3 requests
		PhoneWindow:      10 * time.Minute, // per 10 minutes
		MaxIPRequests:    10,               // 10 requests
		IPWindow:         1 * time.Hour,    // per hour
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "phone" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(config RateLimitConfig) *RateLimitService {
	if config.MaxPhoneRequests <= 0 {
		config = DefaultRateLimitConfig()
	}
	return &RateLimitService{
		config:   config,
		requests: make(map[string][]time.Time),
	}
}

// CheckOTPRateLimit checks if a phone number or IP has exceeded rate limits
func (s *RateLimitService) CheckOTPRateLimit(phone, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if phone != "" {
		if err := s.check("phone:"+phone, "phone", s.config.MaxPhoneRequests, s.config.PhoneWindow); err != nil {
			return err
		}
	}

	if ip != "" {
		if err := s.check("ip:"+ip, "ip", s.config.MaxIPRequests, s.config.IPWindow); err != nil {
			return err
		}
	}

	return nil
}

// RecordOTPRequest records an OTP request for rate limiting
func (s *RateLimitService) RecordOTPRequest(phone, ip string) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if phone != "" {
		s.requests["phone:"+phone] = append(s.requests["phone:"+phone], now)
	}
	if ip != "" {
		s.requests["ip:"+ip] = append(s.requests["ip:"+ip], now)
	}
}

// check prunes stale entries for the key and enforces the window limit.
// Caller must hold the mutex.
func (s *RateLimitService) check(key, limitType string, max int, window time.Duration) error {
	windowStart := time.Now().Add(-window)

	var recent []time.Time
	var last time.Time
	for _, t := range s.requests[key] {
		if t.After(windowStart) {
			recent = append(recent, t)
			if t.After(last) {
				last = t
			}
		}
	}

	if recent == nil {
		delete(s.requests, key)
	} else {
		s.requests[key] = recent
	}

	if len(recent) >= max {
		retryAfter := last.Add(window)
		subject := "this phone number"
		if limitType == "ip" {
			subject = "this IP address"
		}
		return &RateLimitError{
			Message:    fmt.Sprintf("Too many OTP requests for %s. Please try again after %s", subject, retryAfter.Format("15:04:05")),
			RetryAfter: retryAfter,
			Type:       limitType,
		}
	}

	return nil
}
