// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds every setting the service reads from the environment.
type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	AllowedOrigins string
	ClientURL      string
	AdminToken     string

	LLMAPIURL string
	LLMAPIKey string
	LLMModel  string

	RPCURL          string
	ChainID         int64
	USDCAddress     string
	TreasuryAddress string

	TwitterClientID     string
	TwitterClientSecret string
	TwitterRedirectURL  string

	R2AccountID    string
	R2AccessKey    string
	R2AccessSecret string
	R2Bucket       string
	CDNBaseURL     string

	RateLimitPerMinute int
	BannedWords        []string
}

// LoadDotEnv loads .env if present. A missing file only warns.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
}

// Load reads the environment into a Config. Every missing required key is
// reported in a single error.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "5200"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: normalizeOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		ClientURL:      strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:3000"), "/"),
		AdminToken:     os.Getenv("ADMIN_TOKEN"),

		LLMAPIURL: os.Getenv("LLM_API_URL"),
		LLMAPIKey: os.Getenv("LLM_API_KEY"),
		LLMModel:  getEnv("LLM_MODEL", "gpt-4o-mini"),

		RPCURL:          os.Getenv("RPC_URL"),
		USDCAddress:     os.Getenv("USDC_ADDRESS"),
		TreasuryAddress: os.Getenv("TREASURY_ADDRESS"),

		TwitterClientID:     os.Getenv("TWITTER_CLIENT_ID"),
		TwitterClientSecret: os.Getenv("TWITTER_CLIENT_SECRET"),
		TwitterRedirectURL:  os.Getenv("TWITTER_REDIRECT_URL"),

		R2AccountID:    os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKey:    os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessSecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
		R2Bucket:       os.Getenv("R2_BUCKET_NAME"),
		CDNBaseURL:     os.Getenv("CDN_BASE_URL"),

		BannedWords: splitList(os.Getenv("BANNED_WORDS")),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.ChainID, err = strconv.ParseInt(getEnv("CHAIN_ID", "8453"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid CHAIN_ID: %w", err)
	}
	if cfg.RateLimitPerMinute, err = strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120")); err != nil || cfg.RateLimitPerMinute <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %q", os.Getenv("RATE_LIMIT_PER_MINUTE"))
	}

	return cfg, nil
}

// LLMEnabled reports whether lesson generation can call the LLM.
func (c *Config) LLMEnabled() bool { return c.LLMAPIURL != "" && c.LLMAPIKey != "" }

// Web3Enabled reports whether on-chain verification is configured.
func (c *Config) Web3Enabled() bool { return c.RPCURL != "" && c.USDCAddress != "" }

// TwitterEnabled reports whether Twitter login is configured.
func (c *Config) TwitterEnabled() bool {
	return c.TwitterClientID != "" && c.TwitterRedirectURL != ""
}

// R2Enabled reports whether avatar uploads are configured.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKey != "" && c.R2AccessSecret != "" && c.R2Bucket != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeOrigins trims spaces around each comma separated origin.
func normalizeOrigins(raw string) string {
	return strings.Join(splitList(raw), ",")
}
