package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DefaultEnv                  = "development"
	DefaultPort                 = "8080"
	DefaultSessionTokenTTL      = 24 * time.Hour
	DefaultResetTokenTTL        = time.Hour
	DefaultVerificationTokenTTL = 24 * time.Hour
	DefaultRefreshTokenTTL      = 7 * 24 * time.Hour
	DefaultFrontendURL          = "http://localhost:3000"
	DefaultCORSOrigins          = "http://localhost:3000"
	DefaultLogLevel             = "info"
	DefaultBcryptCost           = 10
	DefaultLoginMaxAttempts     = 5
	DefaultLoginWindowMinutes   = 15
	DefaultSMTPPort             = 587
	DefaultSMTPFrom             = "no-reply@localhost"
	DefaultSMTPTLSMode          = "starttls"
)

type Config struct {
	Env   string
	Port  string
	DBURL string

	JWTSecret            string
	SessionTokenTTL      time.Duration
	ResetTokenTTL        time.Duration
	VerificationTokenTTL time.Duration
	RefreshTokenTTL      time.Duration
	RSAPrivateKeyPath    string

	FrontendURL string
	CORSOrigins []string
	LogLevel    string
	AutoMigrate bool

	BcryptCost         int
	LoginMaxAttempts   int
	LoginWindowMinutes int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPTLSMode  string
}

// Load reads config/.env.dev (or config/.env.prod when ENV=production) and
// then the process environment. Real environment variables win over the file.
func Load() *Config {
	env := getEnv("ENV", DefaultEnv)
	file := "config/.env.dev"
	if env == "production" {
		file = "config/.env.prod"
	}
	if err := godotenv.Load(file); err != nil {
		log.Debug().Str("file", file).Msg("no env file loaded, using environment only")
	}

	return &Config{
		Env:   env,
		Port:  getEnv("PORT", DefaultPort),
		DBURL: mustGetEnv("DB_URL"),

		JWTSecret:            mustGetEnv("JWT_SECRET"),
		SessionTokenTTL:      getEnvAsDuration("SESSION_TOKEN_TTL", DefaultSessionTokenTTL),
		ResetTokenTTL:        getEnvAsDuration("RESET_TOKEN_TTL", DefaultResetTokenTTL),
		VerificationTokenTTL: getEnvAsDuration("VERIFICATION_TOKEN_TTL", DefaultVerificationTokenTTL),
		RefreshTokenTTL:      getEnvAsDuration("REFRESH_TOKEN_TTL", DefaultRefreshTokenTTL),
		RSAPrivateKeyPath:    getEnv("RSA_PRIVATE_KEY_PATH", ""),

		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", DefaultFrontendURL), "/"),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", DefaultCORSOrigins),
		LogLevel:    getEnv("LOG_LEVEL", DefaultLogLevel),
		AutoMigrate: getEnvAsBool("AUTO_MIGRATE", true),

		BcryptCost:         getEnvAsInt("BCRYPT_COST", DefaultBcryptCost),
		LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", DefaultLoginMaxAttempts),
		LoginWindowMinutes: getEnvAsInt("LOGIN_WINDOW_MINUTES", DefaultLoginWindowMinutes),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", DefaultSMTPPort),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", DefaultSMTPFrom),
		SMTPTLSMode:  getEnv("SMTP_TLS_MODE", DefaultSMTPTLSMode),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatal().Msgf("Missing required config: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Warn().Str("key", key).Int("default", defaultVal).Msg("invalid integer config, using default")
		return defaultVal
	}
	return val
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := time.ParseDuration(valStr)
	if err != nil || val <= 0 {
		log.Warn().Str("key", key).Dur("default", defaultVal).Msg("invalid duration config, using default")
		return defaultVal
	}
	return val
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Warn().Str("key", key).Bool("default", defaultVal).Msg("invalid boolean config, using default")
		return defaultVal
	}
	return val
}

func getEnvAsList(key string, defaultVal string) []string {
	raw := getEnv(key, defaultVal)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
