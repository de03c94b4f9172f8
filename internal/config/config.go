package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Fan-out targets
	LeadsQueueURL string
	EventBusName  string

	// Persistence
	LeadsTable string

	// Vendor configuration parameter and cache bound
	VendorsConfigParam string
	VendorsConfigTTL   time.Duration

	// Optional S3 mirror of event envelopes
	ArchiveBucket string

	// Hosted store worker tuning
	WorkerCount     int
	PollWaitSeconds int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		LeadsQueueURL: getEnv("LEADS_QUEUE_URL", ""),
		EventBusName:  getEnv("LEAD_EVENT_BUS", "default"),

		LeadsTable: getEnv("LEADS_TABLE", "vendor_leads"),

		VendorsConfigParam: getEnv("VENDORS_CONFIG_PARAM", "/vendorleads/vendors-config"),
		VendorsConfigTTL:   getEnvAsDuration("VENDORS_CONFIG_TTL", 30*time.Second),

		ArchiveBucket: getEnv("ARCHIVE_BUCKET", ""),

		WorkerCount:     getEnvAsInt("WORKER_COUNT", 2),
		PollWaitSeconds: getEnvAsInt("POLL_WAIT_SECONDS", 5),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
