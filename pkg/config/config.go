package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration from environment variables
type Config struct {
	// Storefront client
	APIURL       string
	Environment  string
	APITimeout   time.Duration
	APIToken     string // Static bearer used by the terminal client
	HealthGate   bool
	MerchantName string

	// Pricing shown before the backend computes the final charge
	ShippingFee float64
	TaxRate     float64

	// Query retry schedule for transient failures
	RetryDelays []time.Duration

	// Sandbox backend
	SandboxPort string
	SandboxSeed bool

	// OpenTelemetry
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPHeaders   string // For SigNoz Cloud: signoz-ingestion-key=<key>
	OTELExporterOTLPInsecure  bool   // true for http://, false for https://
	OTELMetricsEnabled        bool
	OTELServiceName           string
	OTELServiceVersion        string
	OTELDeploymentEnvironment string
}

// LoadConfig loads configuration from .env file and environment variables with defaults
func LoadConfig() *Config {
	// .env file is optional, so we only log if there's an actual error (not just file not found)
	if err := godotenv.Load(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	env := getEnv("STOREFRONT_ENV", "development")

	return &Config{
		APIURL:       strings.TrimRight(getEnv("STOREFRONT_API_URL", "http://localhost:8080"), "/"),
		Environment:  env,
		APITimeout:   getEnvDuration("STOREFRONT_API_TIMEOUT", 30*time.Second),
		APIToken:     getEnv("STOREFRONT_API_TOKEN", ""),
		HealthGate:   getEnvBool("STOREFRONT_HEALTH_GATE", true),
		MerchantName: getEnv("STOREFRONT_MERCHANT_NAME", "Nexent"),

		ShippingFee: getEnvFloat("STOREFRONT_SHIPPING_FEE", 10.0),
		TaxRate:     getEnvFloat("STOREFRONT_TAX_RATE", 0.08),

		RetryDelays: getEnvDurations("STOREFRONT_RETRY_DELAYS", []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}),

		SandboxPort: getEnv("SANDBOX_PORT", "8080"),
		SandboxSeed: getEnvBool("SANDBOX_SEED", true),

		OTELExporterOTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELExporterOTLPHeaders:   getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OTELExporterOTLPInsecure:  getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELMetricsEnabled:        getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELServiceName:           getEnv("OTEL_SERVICE_NAME", "storefront-client"),
		OTELServiceVersion:        getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
		OTELDeploymentEnvironment: getEnv("OTEL_DEPLOYMENT_ENVIRONMENT", env),
	}
}

// Validate reports configuration the client cannot run with
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("STOREFRONT_API_URL is required")
	}
	if c.TaxRate < 0 {
		return fmt.Errorf("tax rate cannot be negative: %v", c.TaxRate)
	}
	if c.ShippingFee < 0 {
		return fmt.Errorf("shipping fee cannot be negative: %v", c.ShippingFee)
	}
	return nil
}

// APIBaseURL returns the backend base path every request is issued against
func (c *Config) APIBaseURL() string {
	return c.APIURL + "/api"
}

// IsProduction reports whether traffic logging must stay off
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetSandboxPortInt returns the sandbox port as an integer
func (c *Config) GetSandboxPortInt() int {
	port, err := strconv.Atoi(c.SandboxPort)
	if err != nil {
		return 8080
	}
	return port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if value == "true" || value == "1" || value == "yes" {
			return true
		}
		return false
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.Printf("Warning: invalid %s=%q, using %v", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.Printf("Warning: invalid %s=%q, using %v", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDurations parses a comma separated list such as "2s,5s,10s"
func getEnvDurations(key string, defaultValue []time.Duration) []time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var delays []time.Duration
	for _, part := range strings.Split(value, ",") {
		d, err := time.ParseDuration(strings.TrimSpace(part))
		if err != nil {
			log.Printf("Warning: invalid %s=%q, using defaults", key, value)
			return defaultValue
		}
		delays = append(delays, d)
	}
	return delays
}
