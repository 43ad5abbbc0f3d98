package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Registry RegistryConfig `json:"registry"`
	Security SecurityConfig `json:"security"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	User         string        `json:"user"`
	Password     string        `json:"password"`
	DBName       string        `json:"db_name"`
	SSLMode      string        `json:"ssl_mode"`
	MaxConns     int           `json:"max_connections"`
	MaxIdleConns int           `json:"max_idle_conns"`
	MaxLifetime  time.Duration `json:"max_lifetime"`
}

// RegistryConfig holds the registry policy constants
type RegistryConfig struct {
	// MinVerificationFee in native currency units.
	MinVerificationFee uint64 `json:"min_verification_fee"`
	// AuthorityAddress receives escrow consumed by rejections.
	AuthorityAddress string `json:"authority_address"`
	// GovernmentAuthority signs compliance approvals.
	GovernmentAuthority string `json:"government_authority"`
	// CarbonTokenMint is the delegated token mint reference.
	CarbonTokenMint string `json:"carbon_token_mint"`
	// AuditWindow is how long a project may await verification before the
	// sweeper expires it.
	AuditWindow time.Duration `json:"audit_window"`
	// ExpirySchedule is the cron expression for the expiry sweep.
	ExpirySchedule string `json:"expiry_schedule"`
}

// SecurityConfig
type SecurityConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    os.Getenv("USER"),
			DBName:  "accord_registry",
			SSLMode: "disable",
		},
		Registry: RegistryConfig{
			MinVerificationFee: 100_000_000,
			AuthorityAddress:   "registry-authority",
			AuditWindow:        90 * 24 * time.Hour,
			ExpirySchedule:     "0 3 * * *",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Security.JWTSecret = secret
	}
	if fee := os.Getenv("MIN_VERIFICATION_FEE"); fee != "" {
		if f, err := strconv.ParseUint(fee, 10, 64); err == nil {
			config.Registry.MinVerificationFee = f
		}
	}
	if authority := os.Getenv("AUTHORITY_ADDRESS"); authority != "" {
		config.Registry.AuthorityAddress = authority
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
