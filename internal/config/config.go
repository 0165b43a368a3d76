package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// Mail transport
	EmailUser     string
	EmailPassword string
	EmailTo       string
	SMTPHost      string
	SMTPPort      string
	// Optional Gmail XOAUTH2 credentials, used instead of EmailPassword when complete
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRefreshToken string
	// Submission archive
	DatabaseURL        string
	MigrationsDir      string
	ContactArchiveFile string
	// Contact route rate limiting
	ContactRatePerMin int
	ContactRateBurst  int
	TrustedProxies    []string
	// Chatbot
	ChatResponsesFile string
	ChatReplyDelay    time.Duration
	ChatOptionDelay   time.Duration
	ChatSessionTTL    time.Duration
	ChatRatePerMin    int
	ChatRateBurst     int
	// Session cookie; forced on for TLS requests regardless
	CookieSecure bool
	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, loading a .env file first
// when one exists. Missing mail credentials are not an error here.
func Load() Config {
	_ = godotenv.Load()
	user := os.Getenv("EMAIL_USER")
	return Config{
		Port:               getEnvDefault("PORT", "8080"),
		AllowedOrigin:      getEnvDefault("ALLOWED_ORIGIN", "*"),
		EmailUser:          user,
		EmailPassword:      os.Getenv("EMAIL_PASSWORD"),
		EmailTo:            getEnvDefault("EMAIL_TO", user),
		SMTPHost:           getEnvDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:           getEnvDefault("SMTP_PORT", "587"),
		OAuthClientID:      os.Getenv("EMAIL_OAUTH_CLIENT_ID"),
		OAuthClientSecret:  os.Getenv("EMAIL_OAUTH_CLIENT_SECRET"),
		OAuthRefreshToken:  os.Getenv("EMAIL_OAUTH_REFRESH_TOKEN"),
		DatabaseURL:        os.Getenv("DB_URL"),
		MigrationsDir:      os.Getenv("MIGRATIONS_DIR"),
		ContactArchiveFile: os.Getenv("CONTACT_ARCHIVE_FILE"),
		ContactRatePerMin:  getEnvIntDefault("CONTACT_RATE_PER_MIN", 5),
		ContactRateBurst:   getEnvIntDefault("CONTACT_RATE_BURST", 3),
		TrustedProxies:     getEnvListDefault("TRUSTED_PROXIES", nil),
		ChatResponsesFile:  os.Getenv("CHAT_RESPONSES_FILE"),
		ChatReplyDelay:     getEnvDurationDefault("CHAT_REPLY_DELAY", time.Second),
		ChatOptionDelay:    getEnvDurationDefault("CHAT_OPTION_DELAY", 800*time.Millisecond),
		ChatSessionTTL:     getEnvDurationDefault("CHAT_SESSION_TTL", 30*time.Minute),
		ChatRatePerMin:     getEnvIntDefault("CHAT_RATE_PER_MIN", 30),
		ChatRateBurst:      getEnvIntDefault("CHAT_RATE_BURST", 10),
		CookieSecure:       getEnvBoolDefault("COOKIE_SECURE", false),
		LogLevel:           getEnvDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvDefault("LOG_FORMAT", "json"),
	}
}

// UsesOAuth reports whether all XOAUTH2 credentials are present.
func (c Config) UsesOAuth() bool {
	return c.OAuthClientID != "" && c.OAuthClientSecret != "" && c.OAuthRefreshToken != ""
}

// Warnings lists non-fatal configuration problems to log at startup. Mail
// credentials are checked by the transport itself.
func (c Config) Warnings() []string {
	var out []string
	if c.DatabaseURL == "" && c.ContactArchiveFile == "" {
		out = append(out, "no DB_URL or CONTACT_ARCHIVE_FILE; contact submissions are not archived")
	}
	return out
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvListDefault(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			s := strings.TrimSpace(p)
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}
