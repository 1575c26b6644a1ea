package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// OTPLength is the length of the OTP code
	OTPLength = 6

	// DefaultOTPExpiry is how long an OTP is valid
	DefaultOTPExpiry = 5 * time.Minute

	// DefaultMaxOTPAttempts is the maximum number of validation attempts
	DefaultMaxOTPAttempts = 3
)

// OTP delivery modes. Demo mode issues a fixed code and returns it to the
// caller; no SMS is ever sent in either mode.
const (
	OTPModeDemo       = "demo"
	OTPModeProduction = "production"
)

var (
	// ErrOTPExpired indicates the OTP has expired
	ErrOTPExpired = fmt.Errorf("OTP has expired")

	// ErrOTPInvalid indicates the OTP is incorrect
	ErrOTPInvalid = fmt.Errorf("invalid OTP code")

	// ErrMaxAttemptsExceeded indicates too many failed validation attempts
	ErrMaxAttemptsExceeded = fmt.Errorf("maximum OTP validation attempts exceeded")

	// ErrNoOTPFound indicates no OTP exists for the phone number
	ErrNoOTPFound = fmt.Errorf("no OTP found for this phone number")

	// ErrOTPAlreadyUsed indicates the OTP has already been successfully validated
	ErrOTPAlreadyUsed = fmt.Errorf("OTP has already been used")

	// ErrOTPNotVerified indicates login was attempted before a successful verification
	ErrOTPNotVerified = fmt.Errorf("OTP has not been verified for this phone number")
)

// otpRecord holds the state of one issued code
type otpRecord struct {
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
	Attempts  int
	Verified  bool
	IPAddress string
	UserAgent string
}

// OTPService handles OTP generation and verification. State is held in
// memory only: codes are transient by design and do not survive a restart.
type OTPService struct {
	mode        string
	demoCode    string
	expiry      time.Duration
	maxAttempts int
	logger      *logrus.Logger

	mu      sync.Mutex
	records map[string]*otpRecord
}

// NewOTPService creates a new OTP service. Unknown modes fall back to demo.
func NewOTPService(mode, demoCode string, expiry time.Duration, maxAttempts int, logger *logrus.Logger) *OTPService {
	if mode != OTPModeProduction {
		mode = OTPModeDemo
	}
	if expiry <= 0 {
		expiry = DefaultOTPExpiry
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxOTPAttempts
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &OTPService{
		mode:        mode,
		demoCode:    demoCode,
		expiry:      expiry,
		maxAttempts: maxAttempts,
		logger:      logger,
		records:     make(map[string]*otpRecord),
	}
}

// Mode returns the configured delivery mode
func (s *OTPService) Mode() string {
	return s.mode
}

// Generate issues a new OTP for the phone number, invalidating any previous
// code, and records the requester's IP and user agent. Returns the code and
// its expiry time; in demo mode the code is the fixed demonstration code.
func (s *OTPService) Generate(phone, ipAddress, userAgent string) (string, time.Time, error) {
	code := s.demoCode
	if s.mode == OTPModeProduction {
		generated, err := generateRandomOTP()
		if err != nil {
			return "", time.Time{}, fmt.Errorf("failed to generate OTP: %w", err)
		}
		code = generated
	}

	now := time.Now()
	expiresAt := now.Add(s.expiry)

	s.mu.Lock()
	s.records[phone] = &otpRecord{
		Code:      code,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"phone":      phone,
		"mode":       s.mode,
		"ip":         ipAddress,
		"user_agent": userAgent,
		"expires_at": expiresAt,
	}).Info("OTP issued")

	return code, expiresAt, nil
}

// Verify checks a submitted code against the stored one, enforcing expiry,
// single use, and the attempt cap. On success the record is marked verified
// and a subsequent login may consume it.
func (s *OTPService) Verify(phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[phone]
	if !ok {
		return ErrNoOTPFound
	}

	if rec.Verified {
		return ErrOTPAlreadyUsed
	}

	if time.Now().After(rec.ExpiresAt) {
		return ErrOTPExpired
	}

	if rec.Attempts >= s.maxAttempts {
		return ErrMaxAttemptsExceeded
	}

	rec.Attempts++

	if rec.Code != code {
		return ErrOTPInvalid
	}

	rec.Verified = true

	s.logger.WithFields(logrus.Fields{
		"phone":     phone,
		"attempts":  rec.Attempts,
		"issued_at": rec.CreatedAt,
		"ip":        rec.IPAddress,
	}).Info("OTP verified")

	return nil
}

// ConsumeVerified consumes a previously verified OTP for the phone number,
// removing it so it cannot authorize a second login. Fails with
// ErrNoOTPFound if none was requested and ErrOTPNotVerified if Verify has
// not succeeded for it.
func (s *OTPService) ConsumeVerified(phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[phone]
	if !ok {
		return ErrNoOTPFound
	}

	if !rec.Verified {
		return ErrOTPNotVerified
	}

	if time.Now().After(rec.ExpiresAt) {
		delete(s.records, phone)
		return ErrOTPExpired
	}

	delete(s.records, phone)

	s.logger.WithFields(logrus.Fields{
		"phone":      phone,
		"issued_at":  rec.CreatedAt,
		"ip":         rec.IPAddress,
		"user_agent": rec.UserAgent,
	}).Info("Verified OTP consumed for login")

	return nil
}

// RemainingAttempts returns the number of verification attempts left
func (s *OTPService) RemainingAttempts(phone string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[phone]
	if !ok {
		return 0, ErrNoOTPFound
	}

	remaining := s.maxAttempts - rec.Attempts
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Expiry returns the expiry time of the current OTP for the phone number
func (s *OTPService) Expiry(phone string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[phone]
	if !ok {
		return time.Time{}, ErrNoOTPFound
	}
	return rec.ExpiresAt, nil
}

// CleanupExpired removes expired records and returns how many were removed
func (s *OTPService) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for phone, rec := range s.records {
		if now.After(rec.ExpiresAt) {
			delete(s.records, phone)
			removed++
		}
	}
	return removed
}

// generateRandomOTP generates a cryptographically secure random 6-digit OTP
func generateRandomOTP() (string, error) {
	max := big.NewInt(1000000) // 10^6
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}
