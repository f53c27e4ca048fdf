package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENVIRONMENT" default:"development"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`

	// Cache settings. When RedisAddr is empty the service falls back to the
	// in-process cache store.
	RedisAddr         string `envconfig:"REDIS_ADDR"`
	RedisPassword     string `envconfig:"REDIS_PASSWORD"`
	RedisDB           int    `envconfig:"REDIS_DB" default:"0"`
	PrereqCacheTTLSec int    `envconfig:"PREREQ_CACHE_TTL_SEC" default:"3600"`

	// Pub/Sub settings for prerequisite change events. Publishing is skipped
	// entirely when GCPProjectID is empty.
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	PubSubPrereqTopic  string `envconfig:"PUBSUB_PREREQ_TOPIC" default:"prerequisite-events"`
	PubSubEmulatorHost string `envconfig:"PUBSUB_EMULATOR_HOST"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
