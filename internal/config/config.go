package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Data
	DataDir string

	// Google Sheets ミラー
	// SheetIDとBridgeURLの両方が設定されている場合のみミラーが有効になる。
	SheetID      string
	BridgeURL    string
	BackupFileID string // Drive上のアーカイブミラーのファイルID。外部スクリプトが使用する

	// Sheets HTTPクライアント
	SheetsTimeout time.Duration
	SheetsMaxSize int64

	// Rate Limit
	RateLimitGeneral int // req/min/IP

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// すべての項目にデフォルト値があるため、必須環境変数は存在しない。
// Sheetsミラーは GOOGLE_SHEET_ID と GOOGLE_APPS_SCRIPT_URL の
// 両方が設定されている場合のみ有効と判定される。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DataDir = getEnvString("DATA_DIR", "./data")
	cfg.SheetID = os.Getenv("GOOGLE_SHEET_ID")
	cfg.BridgeURL = os.Getenv("GOOGLE_APPS_SCRIPT_URL")
	cfg.BackupFileID = os.Getenv("GOOGLE_BACKUP_FILE_ID")
	cfg.SheetsTimeout = getEnvDuration("SHEETS_TIMEOUT", 10*time.Second)
	cfg.SheetsMaxSize = getEnvInt64("SHEETS_MAX_SIZE", 5242880)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// SheetsConfigured はGoogle Sheetsミラーが有効かどうかを返す。
func (c *Config) SheetsConfigured() bool {
	return strings.TrimSpace(c.SheetID) != "" && strings.TrimSpace(c.BridgeURL) != ""
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

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
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
