package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the configuration for the application.
type Config struct {
	// ServerURL is the base URL of the Mealie server, without /api.
	ServerURL string
	// DBPath is where the local cache database lives. Empty means the
	// default location under the user's config directory.
	DBPath string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	serverURL := os.Getenv("MEALDECK_SERVER")
	if serverURL == "" {
		return nil, fmt.Errorf("MEALDECK_SERVER environment variable not set")
	}
	serverURL = strings.TrimRight(serverURL, "/")
	serverURL = strings.TrimSuffix(serverURL, "/api")

	return &Config{
		ServerURL: serverURL,
		DBPath:    os.Getenv("MEALDECK_DB"),
	}, nil
}
