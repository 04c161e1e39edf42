// Package config has the configuration for the converter and the dictionary server
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment is the deployment environment the process runs in
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

// Column layouts understood by the therapy parser
const (
	LayoutDetailed = "detailed"
	LayoutGlossary = "glossary"
)

// Output modes for the generated JSON document
const (
	ModeWrapped = "wrapped"
	ModeArray   = "array"
)

const (
	DefaultInputPath  = "Diccionario Excel.xlsx - Hoja1.csv"
	DefaultOutputPath = "terapias.json"
	DefaultFormat     = "JSON estructurado"
)

// Config holds all application configuration
type Config struct {
	// Conversion
	InputPath  string
	InputURL   string // Optional spreadsheet export downloaded to InputPath before each conversion
	OutputPath string
	SourceName string // Name recorded in the metadata block, defaults to the input file name
	Format     string
	Layout     string
	OutputMode string // Empty means the layout default
	StrictRows *bool  // nil means the layout default
	Sheet      string // Only used for .xlsx input

	// Logging
	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes

	// Serve mode
	Port           string
	Address        string
	RefreshEvery   time.Duration
	MaxRequestBody int64 // Maximum request body size in bytes
	MaxHeaderSize  int64 // Maximum header size in bytes
}

// LoadDotEnv loads variables from the given .env files (./.env when none is given).
// A missing file is not an error, the process environment is used as is.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	strict, err := getOptionalBoolEnv("STRICT_ROWS")
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid STRICT_ROWS: %w", err)
	}

	cfg := &Config{
		InputPath:         getEnvWithDefault("INPUT_PATH", DefaultInputPath),
		InputURL:          os.Getenv("INPUT_URL"),
		OutputPath:        getEnvWithDefault("OUTPUT_PATH", DefaultOutputPath),
		SourceName:        os.Getenv("SOURCE_NAME"),
		Format:            getEnvWithDefault("OUTPUT_FORMAT_TAG", DefaultFormat),
		Layout:            strings.ToLower(getEnvWithDefault("LAYOUT", LayoutDetailed)),
		OutputMode:        strings.ToLower(os.Getenv("OUTPUT_MODE")),
		StrictRows:        strict,
		Sheet:             os.Getenv("SHEET"),
		Env:               Environment(strings.ToLower(getEnvWithDefault("ENV", string(EnvDevelopment)))),
		LogLevel:          strings.ToLower(os.Getenv("LOG_LEVEL")),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		RefreshEvery:      getDurationEnvWithDefault("REFRESH_EVERY", time.Hour),
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576), // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),  // 1MB default
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every value, it is called again after CLI flags are applied
func (cfg *Config) Validate() error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// ValidateServe checks the settings only the serve command uses
func (cfg *Config) ValidateServe() error {
	if err := validateServeConfig(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// EffectiveSourceName returns the name written in the metadata block
func (cfg *Config) EffectiveSourceName() string {
	if cfg.SourceName != "" {
		return cfg.SourceName
	}
	return filepath.Base(cfg.InputPath)
}

// validateConfig validates the settings every command needs
func validateConfig(cfg *Config) error {
	if err := validateInputPath(cfg.InputPath); err != nil {
		return fmt.Errorf("invalid INPUT_PATH: %w", err)
	}

	if err := validateInputURL(cfg.InputURL); err != nil {
		return fmt.Errorf("invalid INPUT_URL: %w", err)
	}

	if strings.TrimSpace(cfg.OutputPath) == "" {
		return fmt.Errorf("invalid OUTPUT_PATH: OUTPUT_PATH cannot be empty")
	}

	if err := validateLayout(cfg.Layout); err != nil {
		return fmt.Errorf("invalid LAYOUT: %w", err)
	}

	if err := validateOutputMode(cfg.OutputMode); err != nil {
		return fmt.Errorf("invalid OUTPUT_MODE: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	return nil
}

func validateServeConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if cfg.RefreshEvery < time.Minute {
		return fmt.Errorf("invalid REFRESH_EVERY: must be at least 1m, got: %s", cfg.RefreshEvery)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	return nil
}

// validateInputPath only checks the shape of the path, existence is checked when reading
func validateInputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("INPUT_PATH cannot be empty")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return nil
	default:
		return fmt.Errorf("INPUT_PATH must be a .csv or .xlsx file, got: %s", path)
	}
}

// validateInputURL accepts an empty value or an absolute http(s) URL
func validateInputURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("INPUT_URL must be a valid URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("INPUT_URL must be an http or https URL, got: %s", raw)
	}
	return nil
}

func validateLayout(layout string) error {
	switch layout {
	case LayoutDetailed, LayoutGlossary:
		return nil
	}
	return fmt.Errorf("LAYOUT must be one of: [%s %s], got: %s", LayoutDetailed, LayoutGlossary, layout)
}

func validateOutputMode(mode string) error {
	switch mode {
	case "", ModeWrapped, ModeArray:
		return nil
	}
	return fmt.Errorf("OUTPUT_MODE must be one of: [%s %s], got: %s", ModeWrapped, ModeArray, mode)
}

// validateEnv validates the ENV environment variable
func validateEnv(env Environment) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []Environment{EnvDevelopment, EnvStaging, EnvProduction, EnvTest}

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable, empty is allowed
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return nil
	}

	validLevels := []string{"debug", "info", "warn", "error"}

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 { // 1 year maximum
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	if ip := net.ParseIP(address); ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	return nil
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getOptionalBoolEnv returns nil when the variable is unset
func getOptionalBoolEnv(key string) (*bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, fmt.Errorf("%s must be a boolean, got: %s", key, value)
	}
	return &b, nil
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"INPUT_PATH",
		"INPUT_URL",
		"OUTPUT_PATH",
		"SOURCE_NAME",
		"OUTPUT_FORMAT_TAG",
		"LAYOUT",
		"OUTPUT_MODE",
		"STRICT_ROWS",
		"SHEET",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"PORT",
		"ADDRESS",
		"REFRESH_EVERY",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
	}
}
