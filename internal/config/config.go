package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	LogLevel        string
	BackendBaseURL  string
	GoogleClientID  string
	RazorpayKeyID   string
	SessionSecret   string
	RedisURL        string
	SessionTTL      time.Duration
	BackendTimeout  time.Duration
	NotifyTimeout   time.Duration
	UploadTimeout   time.Duration
	RequestTimeout  time.Duration
	MaxResumeBytes  int64
	LoginPerMin     int
	SubmitPerMin    int
	SuccessRedirect time.Duration
	SecureCookies   bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:            envOr("PORT", "8080"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		RedisURL:        envOr("REDIS_URL", ""),
		SessionTTL:      durationOr("SESSION_TTL", 24*time.Hour),
		BackendTimeout:  durationOr("BACKEND_TIMEOUT", 10*time.Second),
		NotifyTimeout:   durationOr("NOTIFY_TIMEOUT", 5*time.Second),
		UploadTimeout:   durationOr("UPLOAD_TIMEOUT", 30*time.Second),
		RequestTimeout:  durationOr("REQUEST_TIMEOUT", 35*time.Second),
		MaxResumeBytes:  int64Or("MAX_RESUME_BYTES", 5<<20),
		LoginPerMin:     intOr("LOGIN_RATE_LIMIT_PER_MIN", 10),
		SubmitPerMin:    intOr("SUBMIT_RATE_LIMIT_PER_MIN", 5),
		SuccessRedirect: durationOr("PAYMENT_SUCCESS_REDIRECT_DELAY", 1500*time.Millisecond),
		SecureCookies:   boolOr("SECURE_COOKIES", true),
	}

	cfg.BackendBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("BACKEND_BASE_URL")), "/")
	cfg.GoogleClientID = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID"))
	cfg.RazorpayKeyID = strings.TrimSpace(os.Getenv("RAZORPAY_KEY_ID"))
	cfg.SessionSecret = strings.TrimSpace(os.Getenv("SESSION_SECRET"))

	missing := make([]string, 0, 4)
	if cfg.BackendBaseURL == "" {
		missing = append(missing, "BACKEND_BASE_URL")
	}
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if cfg.RazorpayKeyID == "" {
		missing = append(missing, "RAZORPAY_KEY_ID")
	}
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if cfg.MaxResumeBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_RESUME_BYTES must be positive")
	}
	invalidLimits := make([]string, 0, 2)
	if cfg.LoginPerMin <= 0 {
		invalidLimits = append(invalidLimits, "LOGIN_RATE_LIMIT_PER_MIN")
	}
	if cfg.SubmitPerMin <= 0 {
		invalidLimits = append(invalidLimits, "SUBMIT_RATE_LIMIT_PER_MIN")
	}
	if len(invalidLimits) > 0 {
		return Config{}, fmt.Errorf("rate limit values must be positive: %s", strings.Join(invalidLimits, ", "))
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func durationOr(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return duration
}

func intOr(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func int64Or(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func boolOr(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
