package config

import (
	"path/filepath"

	"github.com/joho/godotenv"
)

// ReceiptsConfig configures the receipts consumer.  It does not need the
// database or the session secret, so it is loaded on its own.
type ReceiptsConfig struct {
	AMQPURL   string
	LogFile   string
	LogLevel  string
	LogFormat string
}

// LoadReceiptsConfig reads RABBITMQ_URL (or AMQP_URL), RECEIPTS_LOG and the
// LOG_* variables, after loading an optional .env file.
func LoadReceiptsConfig() ReceiptsConfig {
	_ = godotenv.Load()
	return ReceiptsConfig{
		AMQPURL:   firstEnv("", "RABBITMQ_URL", "AMQP_URL"),
		LogFile:   getenv("RECEIPTS_LOG", filepath.Join("logs", "receipts.log")),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),
	}
}
