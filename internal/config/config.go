package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Session tokens
	JWTSecret string
	JWTExpiry time.Duration

	// Secrets and challenges
	BcryptCost int
	OTPTTL     time.Duration
	ResetTTL   time.Duration

	// Login policy
	RequireVerificationBeforeLogin bool

	// Password reset links point at the frontend
	FrontendURL string

	// OTP request throttling (Redis). Empty RedisAddr disables throttling.
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	OTPCooldown     time.Duration
	OTPWindow       time.Duration
	OTPMaxPerWindow int

	// Notification providers
	SendGridAPIKey   string
	SendGridBaseURL  string
	MailFrom         string
	MailFromName     string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	TwilioBaseURL    string
	SMSCountryCode   string
	NotifyTimeout    time.Duration

	// Server
	Port         string
	CORSOrigins  string
	CookieSecure bool
	AppEnv       string

	// Observability
	LogLevel     string
	LogRetention time.Duration
	SentryDSN    string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honoured when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "carepoint_auth"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: parseDuration(getEnv("JWT_EXPIRY", "24h"), 24*time.Hour),

		BcryptCost: parseInt(getEnv("BCRYPT_COST", "10"), 10),
		OTPTTL:     parseDuration(getEnv("OTP_TTL", "10m"), 10*time.Minute),
		ResetTTL:   parseDuration(getEnv("RESET_TTL", "15m"), 15*time.Minute),

		RequireVerificationBeforeLogin: parseBool(getEnv("REQUIRE_VERIFICATION_BEFORE_LOGIN", "false")),

		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         parseInt(getEnv("REDIS_DB", "0"), 0),
		OTPCooldown:     parseDuration(getEnv("OTP_COOLDOWN", "30s"), 30*time.Second),
		OTPWindow:       parseDuration(getEnv("OTP_WINDOW", "15m"), 15*time.Minute),
		OTPMaxPerWindow: parseInt(getEnv("OTP_MAX_PER_WINDOW", "5"), 5),

		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		SendGridBaseURL:  getEnv("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
		MailFrom:         getEnv("MAIL_FROM", ""),
		MailFromName:     getEnv("MAIL_FROM_NAME", "CarePoint"),
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioBaseURL:    getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		SMSCountryCode:   getEnv("SMS_COUNTRY_CODE", "+1"),
		NotifyTimeout:    parseDuration(getEnv("NOTIFY_TIMEOUT", "10s"), 10*time.Second),

		Port:         getEnv("PORT", "4000"),
		CORSOrigins:  getEnv("CORS_ORIGINS", "*"),
		CookieSecure: parseBool(getEnv("COOKIE_SECURE", "false")),
		AppEnv:       getEnv("APP_ENV", "development"),

		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogRetention: parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),
		SentryDSN:    getEnv("SENTRY_DSN", ""),
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}
	if c.DBPassword == "" {
		errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
	}
	if c.OTPMaxPerWindow <= 0 {
		errs = append(errs, errors.New("OTP_MAX_PER_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
