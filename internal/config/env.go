package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr  string
	GinMode  string
	LogLevel string

	DBDriver string
	DBDSN    string

	RazorpayKeyID     string
	RazorpayKeySecret string

	VendorBaseURL        string
	VendorAPIKey         string
	VendorConfirmTimeout time.Duration
	VendorStatusTimeout  time.Duration

	SweepInterval    time.Duration
	SweepBatch       int
	SweepConcurrency int

	JWTSecret          string
	CORSAllowedOrigins []string
}

// LoadEnv reads configuration from the process environment. A .env file in the
// working directory is loaded first when present; real env vars win.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	return Env{
		AppAddr:  str("APP_ADDR", ":8080"),
		GinMode:  str("GIN_MODE", ""),
		LogLevel: str("LOG_LEVEL", "info"),

		DBDriver: strings.ToLower(str("DB_DRIVER", "mysql")),
		DBDSN:    str("DB_DSN", "root:@tcp(127.0.0.1:3306)/travel_app?charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"),

		RazorpayKeyID:     str("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: str("RAZORPAY_KEY_SECRET", ""),

		VendorBaseURL:        str("VENDOR_BASE_URL", "https://stagingapi.easemytrip.com"),
		VendorAPIKey:         str("VENDOR_API_KEY", ""),
		VendorConfirmTimeout: dur("VENDOR_CONFIRM_TIMEOUT", 25*time.Second),
		VendorStatusTimeout:  dur("VENDOR_STATUS_TIMEOUT", 30*time.Second),

		SweepInterval:    dur("SWEEP_INTERVAL", 5*time.Minute),
		SweepBatch:       num("SWEEP_BATCH", 100),
		SweepConcurrency: num("SWEEP_CONCURRENCY", 4),

		JWTSecret:          str("JWT_SECRET", "super-secret-key-change-me"),
		CORSAllowedOrigins: list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}
}

func str(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func dur(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func num(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func list(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	out := []string{}
	for _, o := range strings.Split(v, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
