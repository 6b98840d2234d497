package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; values never override the process environment.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads every present .env file. Missing files are not an error.
func loadEnvFiles() {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load environment file", "path", path, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", path)
	}
}

// applyEnvFallbacks fills secrets from well-known variables when the file leaves them empty.
func applyEnvFallbacks(cfg *Config) {
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}
