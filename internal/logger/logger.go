// internal/logger/logger.go
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. Production deployments keep the
// default JSON output; everything else gets the human-readable console writer.
func Init(appEnv string) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if appEnv != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	// Add a hook to include the caller's file and line number
	log.Logger = log.With().Caller().Logger()
}
