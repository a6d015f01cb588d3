package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 应用配置
type Config struct {
	Env      string
	Port     string
	LogLevel string

	DatabaseDriver string
	DatabaseURL    string

	AppSecret    string
	JWTExpiry    time.Duration
	OIDCIssuer   string
	OIDCClientID string

	WebhookSecret string
	CORSOrigins   []string

	TMDBToken     string
	TMDBBaseURL   string
	TMDBLanguage  string
	TMDBRegion    string
	TMDBTimeout   time.Duration
	TMDBRateLimit float64

	SearchCacheTTL  time.Duration
	CleanupInterval time.Duration
}

// Load 加载配置
func Load() *Config {
	expiryHours, _ := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "72"))
	rateLimit, err := strconv.ParseFloat(getEnv("TMDB_RATE_LIMIT", "20"), 64)
	if err != nil || rateLimit <= 0 {
		rateLimit = 20
	}

	driver := getEnv("DB_DRIVER", "postgres")
	var dbURL string
	switch driver {
	case "sqlite":
		dbURL = getEnv("DB_PATH", "./cowatch.db")
	default:
		dbUser := getEnv("DB_USER", "postgres")
		dbPass := getEnv("DB_PASSWORD", "postgres")
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbName := getEnv("DB_NAME", "cowatch")
		dbSSL := getEnv("DB_SSLMODE", "disable")

		dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)
	}

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", "your-secret-key-change-in-production"))

	if getEnv("APP_ENV", "development") == "production" && appSecret == "your-secret-key-change-in-production" {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	return &Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "5005"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseDriver: driver,
		DatabaseURL:    dbURL,

		AppSecret:    appSecret,
		JWTExpiry:    time.Duration(expiryHours) * time.Hour,
		OIDCIssuer:   getEnv("OIDC_ISSUER", ""),
		OIDCClientID: getEnv("OIDC_CLIENT_ID", ""),

		WebhookSecret: getEnv("IDENTITY_WEBHOOK_SECRET", ""),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		TMDBToken:     getEnv("TMDB_TOKEN", ""),
		TMDBBaseURL:   getEnv("TMDB_BASE_URL", "https://api.themoviedb.org"),
		TMDBLanguage:  getEnv("TMDB_LANGUAGE", "en-US"),
		TMDBRegion:    getEnv("TMDB_REGION", "US"),
		TMDBTimeout:   getDuration("TMDB_TIMEOUT", 10*time.Second),
		TMDBRateLimit: rateLimit,

		SearchCacheTTL:  getDuration("SEARCH_CACHE_TTL", SearchCacheTTL),
		CleanupInterval: getDuration("CLEANUP_INTERVAL", time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration 解析 time.Duration 格式的环境变量（如 "6h"），非法值回退默认
func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
