package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Allowed range for MIN_WITHDRAWAL.
const (
	MinWithdrawalFloor   = 50
	MinWithdrawalCeiling = 100
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Admin    AdminConfig
	Wallet   WalletConfig
	Schedule ScheduleConfig
	Storage  StorageConfig
	LogLevel string
}

type ServerConfig struct {
	Port           string
	AllowedOrigins string
	BodyLimit      int
}

type DatabaseConfig struct {
	DSN             string
	AutoMigrate     bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type AdminConfig struct {
	Email        string
	PasswordHash string
	JWTSecret    string
	TokenTTL     time.Duration
	Issuer       string
}

type WalletConfig struct {
	MinDeposit    int64
	MinWithdrawal int64
	UPIID         string
	UPIName       string
}

type ScheduleConfig struct {
	StatusInterval time.Duration
	Timezone       string
}

// Location resolves Timezone, falling back to UTC for unknown zones.
func (s ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		log.Warn("unknown tournament timezone, using UTC", "tz", s.Timezone, "err", err)
		return time.UTC
	}
	return loc
}

type StorageConfig struct {
	Driver          string // "local" or "r2"
	UploadDir       string
	PublicBaseURL   string
	R2AccountID     string
	R2AccessKeyID   string
	R2AccessSecret  string
	R2Bucket        string
	R2PublicBaseURL string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file found, reading environment variables directly")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "5000"),
			AllowedOrigins: normalizeOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
			BodyLimit:      getInt("BODY_LIMIT_BYTES", 10*1024*1024),
		},
		Database: DatabaseConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			AutoMigrate:     getBool("DB_AUTO_MIGRATE", true),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Admin: AdminConfig{
			Email:        getEnv("ADMIN_EMAIL", "admin@bgmi.com"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			JWTSecret:    os.Getenv("JWT_SECRET"),
			TokenTTL:     getDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
			Issuer:       getEnv("JWT_ISSUER", "bgmi-arena"),
		},
		Wallet: WalletConfig{
			MinDeposit:    int64(getInt("MIN_DEPOSIT", 10)),
			MinWithdrawal: int64(getInt("MIN_WITHDRAWAL", 50)),
			UPIID:         getEnv("ADMIN_UPI", "admin@paytm"),
			UPIName:       getEnv("ADMIN_UPI_NAME", "BGMI Tournament Admin"),
		},
		Schedule: ScheduleConfig{
			StatusInterval: getDuration("SCHEDULE_STATUS_INTERVAL", time.Minute),
			Timezone:       getEnv("TOURNAMENT_TIMEZONE", "Asia/Kolkata"),
		},
		Storage: StorageConfig{
			Driver:          getEnv("STORAGE_DRIVER", "local"),
			UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
			PublicBaseURL:   getEnv("UPLOAD_PUBLIC_BASE_URL", "/uploads"),
			R2AccountID:     os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			R2AccessKeyID:   os.Getenv("R2_ACCESS_KEY_ID"),
			R2AccessSecret:  os.Getenv("R2_ACCESS_KEY_SECRET"),
			R2Bucket:        os.Getenv("R2_BUCKET_NAME"),
			R2PublicBaseURL: os.Getenv("CDN_BASE_URL"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("DATABASE_URL environment variable not set"))
	}
	if c.Admin.PasswordHash == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD_HASH environment variable not set"))
	}
	if c.Admin.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable not set"))
	}
	if c.Wallet.MinDeposit <= 0 {
		errs = append(errs, errors.New("MIN_DEPOSIT must be positive"))
	}
	if c.Wallet.MinWithdrawal < MinWithdrawalFloor || c.Wallet.MinWithdrawal > MinWithdrawalCeiling {
		errs = append(errs, fmt.Errorf("MIN_WITHDRAWAL must be between %d and %d", MinWithdrawalFloor, MinWithdrawalCeiling))
	}
	if c.Storage.Driver == "r2" && (c.Storage.R2AccountID == "" || c.Storage.R2Bucket == "") {
		errs = append(errs, errors.New("STORAGE_DRIVER=r2 requires CLOUDFLARE_ACCOUNT_ID and R2_BUCKET_NAME"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// normalizeOrigins trims the spaces around each comma separated origin.
func normalizeOrigins(raw string) string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}
