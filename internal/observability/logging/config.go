package logging

import "fmt"

type Config struct {
	Format    string // pretty | jsonl
	Level     string
	Output    string // stderr or a file path
	Component string // stamped on events, default "cli"
}

func DefaultConfig() Config {
	return Config{
		Format:    "pretty",
		Level:     "info",
		Output:    "stderr",
		Component: "cli",
	}
}

// Validate rejects unknown formats and levels
func (c Config) Validate() error {
	switch c.Format {
	case "", "pretty", "jsonl":
	default:
		return fmt.Errorf("invalid log format: %q (use pretty or jsonl)", c.Format)
	}
	switch c.Level {
	case "", LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return fmt.Errorf("invalid log level: %q (use debug, info, warn, or error)", c.Level)
	}
	return nil
}

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

func levelPriority(level string) int {
	switch level {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 1 // default to info
	}
}
