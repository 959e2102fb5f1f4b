// Package config loads bkper client configuration.
//
// It uses Viper to read an optional config.yml and godotenv to read an
// optional .env file, then overlays BKPER_-prefixed environment variables
// with underscore-separated paths (e.g. BKPER_API_KEY, BKPER_OAUTH_REFRESH_TOKEN).
//
// Configuration is read once at startup and passed explicitly to the
// client; nothing in the request path reads the environment.
//
//	cfg, err := config.Load(config.WithEnvFile(".env"))
package config
