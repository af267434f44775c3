package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger. Level and output format are refined later
// via Configure once the configuration has been loaded.
func New() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Configure applies the logging section of the configuration to a logger.
func Configure(log zerolog.Logger, level string, pretty, noColor bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	log = log.Level(lvl)

	if pretty {
		log = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			NoColor:    noColor,
			TimeFormat: time.RFC3339,
		})
	}

	return log
}
