package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	JWTSecret       string
	SessionTTL      time.Duration
	AllowOrigins    []string
	TrustedProxies  []string
	LogstashTCPAddr string
	SwaggerSpecPath string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPUseTLS   bool

	PasswordResetTTL            time.Duration
	PasswordResetMinLength      int
	PasswordResetMailTimeout    time.Duration
	PasswordResetConcealUnknown bool

	RedisAddr       string
	RedisPassword   string
	ResetRateLimit  int
	ResetRateWindow time.Duration
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		JWTSecret:       must("JWT_SECRET"),
		SessionTTL:      getDuration("SESSION_TTL", 24*time.Hour),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		TrustedProxies:  splitList(getenv("TRUSTED_PROXIES", "")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),
		SwaggerSpecPath: getenv("SWAGGER_SPEC_PATH", "docs/swagger.yaml"),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", ""),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),
		SMTPUseTLS:   getBool("SMTP_USE_TLS", false),

		PasswordResetTTL:            getDuration("PASSWORD_RESET_TTL", 15*time.Minute),
		PasswordResetMinLength:      getInt("PASSWORD_RESET_MIN_LENGTH", 6),
		PasswordResetMailTimeout:    getDuration("PASSWORD_RESET_MAIL_TIMEOUT", 10*time.Second),
		PasswordResetConcealUnknown: getBool("PASSWORD_RESET_CONCEAL_UNKNOWN_EMAIL", false),

		RedisAddr:       getenv("REDIS_ADDR", ""),
		RedisPassword:   getenv("REDIS_PASSWORD", ""),
		ResetRateLimit:  getInt("RESET_RATE_LIMIT", 5),
		ResetRateWindow: getDuration("RESET_RATE_WINDOW", 15*time.Minute),
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// splitList is splitAndTrim without the wildcard default.
func splitList(input string) []string {
	var out []string
	for _, p := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// getDuration falls back to d for unset, malformed or non-positive values.
func getDuration(k string, d time.Duration) time.Duration {
	raw := os.Getenv(k)
	if raw == "" {
		return d
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s=%q, using %s", k, raw, d)
		return d
	}
	return v
}

func getInt(k string, d int) int {
	raw := os.Getenv(k)
	if raw == "" {
		return d
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", k, raw, d)
		return d
	}
	return v
}

func getBool(k string, d bool) bool {
	raw := os.Getenv(k)
	if raw == "" {
		return d
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %t", k, raw, d)
		return d
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
