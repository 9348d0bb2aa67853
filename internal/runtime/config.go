package runtime

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/specialistvlad/pipegraph/internal/logging"
)

// BroadcastMode selects which nodes receive global parameter values.
type BroadcastMode string

const (
	// BroadcastAccepting sends a global value to every node in the group's
	// subtree whose signature accepts it.
	BroadcastAccepting BroadcastMode = "accepting"
	// BroadcastInputs restricts global values to input nodes, those with no
	// upstream peers.
	BroadcastInputs BroadcastMode = "inputs"
)

var validate = validator.New()

// Config holds the settings of a runtime instance.
type Config struct {
	Broadcast BroadcastMode `validate:"required,oneof=accepting inputs"`

	LogLevel  string `validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `validate:"omitempty,oneof=text json"`
	LogOutput io.Writer

	// Logger, when set, is used as is and the Log* fields are ignored.
	Logger *slog.Logger
}

// Option customises a Config.
type Option func(*Config)

// WithLogger makes the instance log through l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithLogOutput makes the instance log to w at the given level and format.
func WithLogOutput(w io.Writer, level, format string) Option {
	return func(c *Config) {
		c.LogOutput = w
		c.LogLevel = level
		c.LogFormat = format
	}
}

// WithBroadcast selects the global parameter broadcast mode.
func WithBroadcast(mode BroadcastMode) Option {
	return func(c *Config) { c.Broadcast = mode }
}

// NewConfig applies opts over the defaults and validates the result.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := Config{Broadcast: BroadcastAccepting}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, formatValidationErrors(err)
	}
	return &cfg, nil
}

// logger builds the logger described by the config.
func (c *Config) logger() *slog.Logger {
	switch {
	case c.Logger != nil:
		return c.Logger
	case c.LogOutput != nil:
		return logging.New(c.LogLevel, c.LogFormat, c.LogOutput)
	default:
		return logging.Discard()
	}
}

func formatValidationErrors(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
