package config

import (
	"errors"
	"os"
	"time"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisURL    string
	FrontendURL string
	JWTSecret   string
	JWTExpiry   time.Duration
	QuickBooks  QuickBooksConfig
}

// QuickBooksConfig holds the OAuth client credentials and the Intuit endpoints.
// Endpoint defaults point at the sandbox environment.
type QuickBooksConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
}

func LoadConfig() (*Config, error) {
	expiryStr := getEnv("JWT_EXPIRY", "24h")
	expiry, err := time.ParseDuration(expiryStr)
	if err != nil {
		return nil, errors.New("invalid JWT_EXPIRY format")
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000/integrations/quickbooks"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTExpiry:   expiry,
		QuickBooks: QuickBooksConfig{
			ClientID:     os.Getenv("QUICKBOOKS_CLIENT_ID"),
			ClientSecret: os.Getenv("QUICKBOOKS_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("QUICKBOOKS_REDIRECT_URI"),
			Scopes:       getEnv("QUICKBOOKS_SCOPES", "com.intuit.quickbooks.accounting"),
			AuthURL:      getEnv("QUICKBOOKS_AUTH_URL", "https://appcenter.intuit.com/connect/oauth2"),
			TokenURL:     getEnv("QUICKBOOKS_TOKEN_URL", "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"),
			APIBaseURL:   getEnv("QUICKBOOKS_API_BASE_URL", "https://sandbox-quickbooks.api.intuit.com/v3/company"),
		},
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.QuickBooks.ClientID == "" || cfg.QuickBooks.ClientSecret == "" {
		return nil, errors.New("QUICKBOOKS_CLIENT_ID and QUICKBOOKS_CLIENT_SECRET are required")
	}
	if cfg.QuickBooks.RedirectURI == "" {
		return nil, errors.New("QUICKBOOKS_REDIRECT_URI is required")
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
