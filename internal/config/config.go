// Package config は環境変数ベースのアプリケーション設定を提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string
	MongoURI    string
	MongoDBName string

	// Redis（任意。未設定の場合、スイープの分散ロックは無効になる）
	RedisURL string

	// Auth
	JWTSecret         string
	SystemMasterEmail string

	// Sweep
	PurgeInterval       time.Duration
	ConnectionRetention time.Duration
	AuditHourUTC        int
	NotificationTTL     time.Duration

	// Rate Limit（req/min単位）
	RateLimitGeneral  int
	RateLimitCreation int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.MongoURI = os.Getenv("MONGO_URI")
	if cfg.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.MongoDBName = getEnvString("MONGO_DB_NAME", "chrikitn")
	cfg.RedisURL = getEnvString("REDIS_URL", "")
	cfg.SystemMasterEmail = getEnvString("SYSTEM_MASTER_EMAIL", "")
	cfg.PurgeInterval = getEnvDuration("PURGE_INTERVAL", 60*time.Second)
	cfg.ConnectionRetention = getEnvDuration("CONNECTION_RETENTION", 5*24*time.Hour)
	cfg.AuditHourUTC = getEnvInt("AUDIT_HOUR_UTC", 3)
	cfg.NotificationTTL = getEnvDuration("NOTIFICATION_TTL", 7*24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitCreation = getEnvInt("RATE_LIMIT_CREATION", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	if cfg.AuditHourUTC < 0 || cfg.AuditHourUTC > 23 {
		return nil, fmt.Errorf("AUDIT_HOUR_UTC must be in range 0-23: %d", cfg.AuditHourUTC)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
