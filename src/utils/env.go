package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// InitEnvironmentVariables loads .env.<GO_ENV> from dir. Production deploys
// inject variables directly, so nothing is loaded there.
func InitEnvironmentVariables(dir string) error {
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "production" {
		log.Info("Running in production environment")
		return nil
	}

	if goEnv == "" {
		goEnv = "development"
	}

	envFile := filepath.Join(dir, fmt.Sprintf(".env.%s", goEnv))
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		log.Debugf("no %s file found, using process environment", envFile)
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("InitEnvironmentVariables: failed to load %s file: %w", envFile, err)
	}

	return nil
}

// GetEnv returns the first non-empty value among key and its aliases.
func GetEnv(key string, aliases ...string) string {
	for _, k := range append([]string{key}, aliases...) {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}

	return ""
}
