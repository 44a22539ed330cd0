package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads .env.local and .env into the process environment before
// the yaml config is parsed. Variables already present in the environment
// are never overwritten, and .env.local is listed first so it shadows .env;
// the effective precedence is OS env > .env.local > .env. The returned
// slice names the files that were found, for startup logging.
func LoadDotEnv() []string {
	var loaded []string
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}
