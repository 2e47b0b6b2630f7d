// Package config loads engine configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Accrual policy selectors.
const (
	PolicyFlat     = "flat"
	PolicyProrated = "prorated"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Accrual  AccrualConfig
}

// AppConfig holds HTTP server configuration.
type AppConfig struct {
	Port        int
	CORSOrigins []string
}

type DatabaseConfig struct {
	// Path is the sqlite database file; ":memory:" for ephemeral.
	Path string
}

// AccrualConfig selects the deployment-default accrual policy. Employee
// records may override it per employee.
type AccrualConfig struct {
	// Policy is "flat" (fixed yearly grant) or "prorated" (annualQuota/12
	// per elapsed month).
	Policy string

	// FlatDays is the default flat allocation (original default: 7 days).
	FlatDays float64

	// AnnualQuota feeds the prorated policy.
	AnnualQuota float64

	// WholeDays floors prorated accrual to whole days.
	WholeDays bool
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	// .env is optional; env vars alone are fine.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	policy := strings.ToLower(getEnv("ACCRUAL_POLICY", PolicyFlat))
	if policy != PolicyFlat && policy != PolicyProrated {
		return nil, fmt.Errorf("invalid ACCRUAL_POLICY %q (want %q or %q)", policy, PolicyFlat, PolicyProrated)
	}

	flatDays, err := strconv.ParseFloat(getEnv("FLAT_DAYS", "7"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FLAT_DAYS: %w", err)
	}
	annualQuota, err := strconv.ParseFloat(getEnv("ANNUAL_QUOTA", "12"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ANNUAL_QUOTA: %w", err)
	}
	wholeDays, err := strconv.ParseBool(getEnv("ACCRUAL_WHOLE_DAYS", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACCRUAL_WHOLE_DAYS: %w", err)
	}

	origins := strings.Split(getEnv("CORS_ORIGIN", "http://localhost:5173,http://localhost:8080"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		App: AppConfig{
			Port:        port,
			CORSOrigins: origins,
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "breakbook.db"),
		},
		Accrual: AccrualConfig{
			Policy:      policy,
			FlatDays:    flatDays,
			AnnualQuota: annualQuota,
			WholeDays:   wholeDays,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
