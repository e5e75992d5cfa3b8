package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the server needs.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Mail     MailConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	mail, err := loadMailConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Database: DatabaseConfig{Path: getEnvOrDefault("DATABASE_PATH", "data/voizchat.db")},
		Auth:     auth,
		Mail:     mail,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string
}

// AuthConfig holds the token signing key locations and token lifetime.
type AuthConfig struct {
	PrivateKeyPath string
	PublicKeyPath  string
	TokenTTL       time.Duration
}

func loadAuthConfig() (AuthConfig, error) {
	ttl := 7 * 24 * time.Hour
	if raw := strings.TrimSpace(os.Getenv("TOKEN_TTL")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return AuthConfig{}, fmt.Errorf("invalid TOKEN_TTL value %q: %w", raw, err)
		}
		ttl = parsed
	}

	return AuthConfig{
		PrivateKeyPath: getEnvOrDefault("JWT_PRIVATE_KEY_PATH", "private_key.pem"),
		PublicKeyPath:  getEnvOrDefault("JWT_PUBLIC_KEY_PATH", "public_key.pem"),
		TokenTTL:       ttl,
	}, nil
}

// MailConfig describes the verification-mail relay. Enabled is false when
// no credentials are configured; the server then logs mails instead.
type MailConfig struct {
	SMTPHost         string
	SMTPPort         int
	From             string
	Password         string
	WebclientBaseURL string
	Enabled          bool
}

func loadMailConfig() (MailConfig, error) {
	port := 587
	if raw := strings.TrimSpace(os.Getenv("SMTP_PORT")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return MailConfig{}, fmt.Errorf("invalid SMTP_PORT value %q: %w", raw, err)
		}
		port = parsed
	}

	from := strings.TrimSpace(os.Getenv("SMTP_FROM"))
	password := strings.TrimSpace(os.Getenv("SMTP_PASSWORD"))

	return MailConfig{
		SMTPHost:         getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:         port,
		From:             from,
		Password:         password,
		WebclientBaseURL: getEnvOrDefault("WEBCLIENT_BASE_URL", "http://localhost:5173"),
		Enabled:          from != "" && password != "",
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
