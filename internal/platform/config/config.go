package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	GatewayBaseURL  string
	GatewayAPIToken string
	AdminWhatsApp   string

	SweepInterval time.Duration
	SweepBatch    int

	EnableTimeoutSweeper bool
	EnableOutboxRelay    bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "lares"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		GatewayBaseURL:  os.Getenv("GATEWAY_BASE_URL"),
		GatewayAPIToken: os.Getenv("GATEWAY_API_TOKEN"),
		AdminWhatsApp:   os.Getenv("ADMIN_WHATSAPP"),

		SweepInterval: time.Duration(envInt("SWEEP_INTERVAL_SECONDS", 15)) * time.Second,
		SweepBatch:    envInt("SWEEP_BATCH_SIZE", 100),

		EnableTimeoutSweeper: envBool("ENABLE_TIMEOUT_SWEEPER", true),
		EnableOutboxRelay:    envBool("ENABLE_OUTBOX_RELAY", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
