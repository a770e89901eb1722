package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hongminglow/aparthus-be/internal/models"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StaticAccount is a username/password pair configured through the environment.
type StaticAccount struct {
	Username string
	Password string
	Role     models.Role
}

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string
	StorageDriver string
	MongoURI      string
	MongoDatabase string
	DatabaseURL   string
	JWTSecret     string
	JWTIssuer     string
	JWTTTL        time.Duration
	CORSOrigins   []string

	StaticAccounts []StaticAccount

	LoginRatePerMinute   int
	DuesReminderInterval time.Duration
	SeedFile             string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:          fallback(os.Getenv("PORT"), "5001"),
		MongoURI:      strings.TrimSpace(os.Getenv("MONGODB_URI")),
		MongoDatabase: fallback(os.Getenv("MONGODB_DATABASE"), "aparthus"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:     fallback(os.Getenv("JWT_ISSUER"), "aparthus-backend"),
		CORSOrigins:   parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		SeedFile:      strings.TrimSpace(os.Getenv("SEED_FILE")),
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "60")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	rate := fallback(os.Getenv("LOGIN_RATE_PER_MINUTE"), "10")
	if perMinute, err := strconv.Atoi(rate); err == nil && perMinute >= 0 {
		cfg.LoginRatePerMinute = perMinute
	} else {
		return Config{}, fmt.Errorf("invalid LOGIN_RATE_PER_MINUTE %q", rate)
	}

	interval := fallback(os.Getenv("DUES_REMINDER_INTERVAL"), "24h")
	d, err := time.ParseDuration(interval)
	if err != nil || d < 0 {
		return Config{}, fmt.Errorf("invalid DUES_REMINDER_INTERVAL %q", interval)
	}
	cfg.DuesReminderInterval = d

	cfg.StaticAccounts = staticAccounts()

	driver, err := resolveDriver(strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_DRIVER"))), cfg)
	if err != nil {
		return Config{}, err
	}
	cfg.StorageDriver = driver

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func resolveDriver(driver string, cfg Config) (string, error) {
	switch driver {
	case DriverMongo:
		if cfg.MongoURI == "" {
			return "", errors.New("MONGODB_URI is required for the mongo driver")
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return "", errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverMemory:
	case "":
		switch {
		case cfg.MongoURI != "":
			return DriverMongo, nil
		case cfg.DatabaseURL != "":
			return DriverPostgres, nil
		default:
			return "", errors.New("MONGODB_URI or DATABASE_URL is required (or STORAGE_DRIVER=memory)")
		}
	default:
		return "", fmt.Errorf("unknown STORAGE_DRIVER %q", driver)
	}
	return driver, nil
}

func staticAccounts() []StaticAccount {
	prefixes := []struct {
		env  string
		role models.Role
	}{
		{"ADMIN", models.RoleAdmin},
		{"RESIDENT", models.RoleResident},
		{"SECURITY", models.RoleSecurity},
	}
	var out []StaticAccount
	for _, p := range prefixes {
		username := strings.TrimSpace(os.Getenv(p.env + "_USERNAME"))
		password := os.Getenv(p.env + "_PASSWORD")
		if username == "" || password == "" {
			continue
		}
		out = append(out, StaticAccount{Username: username, Password: password, Role: p.role})
	}
	return out
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
