package configutil

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotenv loads the given .env files into the process environment,
// missing files are ignored and already set variables are not overridden.
func LoadDotenv(files ...string) error {
	for _, f := range files {
		err := godotenv.Load(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// EnvOverride returns the value of the environment variable key if it is
// set and not empty, else fallback.
func EnvOverride(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}
