package env

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
)

// Load reads .env from the working directory into the process environment.
// Variables already set take precedence. A missing file is not an error.
func Load(logger *slog.Logger) error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no .env file found, using the process environment")
		return nil
	}
	return err
}
