package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "STOREFRONT"

// Config is the full service configuration, processed from the environment
// with the STOREFRONT_ prefix. At most one catalog source should be set; when
// several are, DSN wins over URL over file.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	CatalogFile string `envconfig:"CATALOG_FILE" default:"productos.json"`
	CatalogURL  string `envconfig:"CATALOG_URL"`
	CatalogDSN  string `envconfig:"CATALOG_DSN"`

	JWTSecret  string        `envconfig:"JWT_SECRET" default:"dev-secret"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	StoreName      string `envconfig:"STORE_NAME" default:"Librería Santa Rosa"`
	WhatsAppNumber string `envconfig:"WHATSAPP_NUMBER" default:"584244237456"`

	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricsToken   string `envconfig:"METRICS_TOKEN"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}
