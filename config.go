package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// Config holds the application configuration
type Config struct {
	// SerialPort bypasses port selection when set (e.g. "/dev/ttyACM0")
	SerialPort string
	// Manufacturers overrides the USB manufacturer priority list used to pick a port
	Manufacturers []string
	// Prime interrupts running programs and forces the normal REPL on connect
	Prime bool
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// BindAddress is the address the control server listens on (e.g. "127.0.0.1:8080")
	BindAddress string
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "127.0.0.1:8080"
		c.LogLevel = "info"
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if m := os.Getenv("MANUFACTURERS"); m != "" {
			c.Manufacturers = splitList(m)
		}

		if prime := os.Getenv("PRIME"); prime != "" {
			if p, err := strconv.ParseBool(prime); err == nil {
				c.Prime = p
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags that were set
// explicitly
func WithFlags(fSet *pflag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *pflag.Flag) {
			switch f.Name {
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "manufacturers":
				var m []string
				if m, err = fSet.GetStringSlice(f.Name); err == nil {
					c.Manufacturers = m
				}
			case "prime":
				if p, perr := strconv.ParseBool(f.Value.String()); perr == nil {
					c.Prime = p
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "bind-address":
				c.BindAddress = f.Value.String()
			}
		})
		return err
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
