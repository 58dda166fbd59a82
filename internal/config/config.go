package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
)

type Config struct {
	Database   DatabaseConfig
	Mongo      MongoConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Leave      LeaveConfig
	Bootstrap  BootstrapConfig
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MongoConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	Timezone           *time.Location
	CORSAllowedOrigins []string
}

// AttendanceConfig controls check-in rules.
type AttendanceConfig struct {
	// LateThreshold is the time of day (HH:MM) after which a check-in counts as late.
	LateThreshold      string
	OfficeLatitude     *float64
	OfficeLongitude    *float64
	OfficeRadiusMeters float64
	RequireQR          bool
}

type LeaveConfig struct {
	AnnualAllowance float64
}

// BootstrapConfig seeds the first admin account when the user store is empty.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, reading configuration from environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Driver:   strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hris_attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	config.Mongo = MongoConfig{
		URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database: getEnv("MONGO_DATABASE", "hris_attendance"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	loc, err := time.LoadLocation(getEnv("APP_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	config.App = AppConfig{
		Port:               appPort,
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Timezone:           loc,
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "12h"),
	}

	// Attendance configuration
	radius, err := strconv.ParseFloat(getEnv("ATTENDANCE_OFFICE_RADIUS_METERS", "100"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_OFFICE_RADIUS_METERS: %w", err)
	}
	officeLat, err := getEnvFloatPtr("ATTENDANCE_OFFICE_LAT")
	if err != nil {
		return nil, err
	}
	officeLng, err := getEnvFloatPtr("ATTENDANCE_OFFICE_LNG")
	if err != nil {
		return nil, err
	}
	requireQR, err := strconv.ParseBool(getEnv("ATTENDANCE_REQUIRE_QR", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_REQUIRE_QR: %w", err)
	}

	config.Attendance = AttendanceConfig{
		LateThreshold:      getEnv("ATTENDANCE_LATE_THRESHOLD", "09:15"),
		OfficeLatitude:     officeLat,
		OfficeLongitude:    officeLng,
		OfficeRadiusMeters: radius,
		RequireQR:          requireQR,
	}

	// Leave configuration
	allowance, err := strconv.ParseFloat(getEnv("LEAVE_ANNUAL_ALLOWANCE", "12"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LEAVE_ANNUAL_ALLOWANCE: %w", err)
	}
	config.Leave = LeaveConfig{AnnualAllowance: allowance}

	config.Bootstrap = BootstrapConfig{
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case DriverMongoDB:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGO_URI is required")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.Parse("15:04", c.Attendance.LateThreshold); err != nil {
		return fmt.Errorf("ATTENDANCE_LATE_THRESHOLD must be HH:MM: %w", err)
	}
	if (c.Attendance.OfficeLatitude == nil) != (c.Attendance.OfficeLongitude == nil) {
		return fmt.Errorf("ATTENDANCE_OFFICE_LAT and ATTENDANCE_OFFICE_LNG must be set together")
	}
	if c.Leave.AnnualAllowance < 0 {
		return fmt.Errorf("LEAVE_ANNUAL_ALLOWANCE cannot be negative")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}

func getEnvFloatPtr(key string) (*float64, error) {
	value := getEnv(key, "")
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &f, nil
}
