package config

import "os"

// parseEnv overlays secrets that are conventionally passed through the
// environment. Unset or empty variables leave the current value untouched.
func parseEnv(config *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.GeminiAPIKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.SecretKey = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
}
