// Package logging builds the process zerolog logger from configuration
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

// Config selects level, format and sinks
type Config struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"` // console or json
	Service string `mapstructure:"service"`

	GraylogEnabled bool   `mapstructure:"graylogEnabled"`
	GraylogAddress string `mapstructure:"graylogAddress"`

	// Out defaults to stdout
	Out io.Writer `mapstructure:"-"`
}

// ParseLevel maps a case-insensitive level name, unknown names fall back to info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "DISABLED", "OFF":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger; the returned closer releases the Graylog connection
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	level := ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	var primary io.Writer = out
	if !strings.EqualFold(cfg.Format, "json") {
		primary = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    out != os.Stdout,
		}
	}

	var closer io.Closer = nopCloser{}
	writer := primary
	if cfg.GraylogEnabled {
		gw, err := gelf.NewWriter(cfg.GraylogAddress)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("graylog writer %s: %w", cfg.GraylogAddress, err)
		}
		closer = gw
		writer = zerolog.MultiLevelWriter(primary, gw)
	}

	ctx := zerolog.New(writer).Level(level).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	return ctx.Logger(), closer, nil
}

// Component derives a child logger tagged with a component name
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
