package logger

import (
	"os"

	"github.com/rs/zerolog"
)

var Log zerolog.Logger

// Init configures the package-level logger. Console output for dev, plain
// JSON otherwise.
func Init(pretty bool) {
	var out = zerolog.New(os.Stdout)
	if pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	Log = out.With().Timestamp().Logger()
}
