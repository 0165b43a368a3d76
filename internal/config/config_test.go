package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "EMAIL_USER", "EMAIL_PASSWORD", "EMAIL_TO", "SMTP_HOST", "CHAT_REPLY_DELAY", "TRUSTED_PROXIES", "DB_URL", "CONTACT_ARCHIVE_FILE"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTPHost)
	assert.Equal(t, "587", cfg.SMTPPort)
	assert.Equal(t, time.Second, cfg.ChatReplyDelay)
	assert.Equal(t, 800*time.Millisecond, cfg.ChatOptionDelay)
	assert.Nil(t, cfg.TrustedProxies)
	assert.Equal(t, 30, cfg.ChatRatePerMin)
	assert.Equal(t, 10, cfg.ChatRateBurst)
	assert.NotEmpty(t, cfg.Warnings())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EMAIL_USER", "hello@confidante.com")
	t.Setenv("EMAIL_PASSWORD", "app-password")
	t.Setenv("EMAIL_TO", "")
	t.Setenv("CHAT_REPLY_DELAY", "0s")
	t.Setenv("CONTACT_RATE_BURST", "7")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.1, ,10.0.0.2 ")
	t.Setenv("COOKIE_SECURE", "yes")

	cfg := Load()

	assert.Equal(t, "app-password", cfg.EmailPassword)
	assert.False(t, cfg.UsesOAuth())
	assert.Equal(t, "hello@confidante.com", cfg.EmailTo, "recipient defaults to the account")
	assert.Equal(t, time.Duration(0), cfg.ChatReplyDelay)
	assert.Equal(t, 7, cfg.ContactRateBurst)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.TrustedProxies)
	assert.True(t, cfg.CookieSecure)
}

func TestUsesOAuth(t *testing.T) {
	cfg := Config{EmailUser: "a@b.co", OAuthClientID: "id", OAuthClientSecret: "secret", OAuthRefreshToken: "refresh"}
	assert.True(t, cfg.UsesOAuth())

	cfg.OAuthRefreshToken = ""
	assert.False(t, cfg.UsesOAuth())
}

func TestEnvHelpersIgnoreGarbage(t *testing.T) {
	t.Setenv("X_INT", "many")
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_BOOL", "maybe")

	assert.Equal(t, 3, getEnvIntDefault("X_INT", 3))
	assert.Equal(t, time.Minute, getEnvDurationDefault("X_DUR", time.Minute))
	assert.True(t, getEnvBoolDefault("X_BOOL", true))
}
