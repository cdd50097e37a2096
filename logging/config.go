package logging

import "time"

// Config controls how an EventBus buffers, filters, and gives up on
// delivery to its subscribed sinks.
type Config struct {
	// Capacity bounds the bus's inbox; a full inbox drops the event rather
	// than blocking the publisher (the tick loop must never stall on a
	// logging backlog).
	Capacity int
	// MinimumSeverity discards events below this severity before they ever
	// reach a sink.
	MinimumSeverity Severity
	// Fields are attached to every event's Extra map, without overwriting
	// a key the event already set.
	Fields map[string]any
	// Console configures the human-readable sink.
	Console ConsoleConfig
	// DropWarnInterval rate-limits the "inbox full" warning so a sustained
	// backlog does not itself flood the fallback logger.
	DropWarnInterval time.Duration
	// MaxConsecutiveFailures trips a subscriber's circuit after this many
	// writes to its sink fail in a row.
	MaxConsecutiveFailures int
}

// ConsoleConfig configures the console sink.
type ConsoleConfig struct {
	UseColor bool
}

// DefaultConfig returns the settings used when the CLI runs without a
// verbosity override: a generously buffered bus at info severity and
// above, with a subscriber circuit that trips after eight consecutive
// failed writes instead of retrying forever.
func DefaultConfig() Config {
	return Config{
		Capacity:               512,
		MinimumSeverity:        SeverityInfo,
		DropWarnInterval:       5 * time.Second,
		MaxConsecutiveFailures: 8,
	}
}

// CloneFields returns an independent copy of c.Fields, or nil if there are
// none, so a Config can be shared without callers aliasing its map.
func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	cloned := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		cloned[k] = v
	}
	return cloned
}
