package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_API_ADDR points at a running instance, e.g. http://localhost:3001.
	// Leaving it empty skips the whole suite.
	APIAddr string `envconfig:"E2E_API_ADDR"`
	// E2E_PUSH_ADDR is the websocket endpoint, e.g. ws://localhost:7071/.
	PushAddr string `envconfig:"E2E_PUSH_ADDR"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
