package session

import (
	"io"
	"log/slog"
	"time"

	"i4.energy/across/picorepl/port"
	"i4.energy/across/picorepl/repl"
)

const (
	// BaudRate of the board's USB CDC REPL.
	BaudRate = 115200

	// ConnectTimeout bounds the time between starting a dial and the port
	// being open.
	ConnectTimeout = 2000 * time.Millisecond

	defaultEventBuffer = 100
)

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	return nil
}

// Config holds the settings of a Session. Build one with NewConfigBuilder.
type Config struct {
	dialer      Dialer
	catalog     port.Catalog
	address     string
	policy      port.Policy
	prime       bool
	banners     repl.Banners
	logger      *slog.Logger
	eventBuffer int
}

func (c *Config) setDefaults() {
	if c.catalog == nil {
		c.catalog = port.SystemCatalog{}
	}
	if c.banners == (repl.Banners{}) {
		c.banners = repl.DefaultBanners()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.eventBuffer == 0 {
		c.eventBuffer = defaultEventBuffer
	}
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: Config{policy: port.DefaultPolicy()},
	}
}

// WithDialer sets how the serial port is opened. Required.
func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

// WithCatalog sets where candidate ports are listed from. Defaults to the
// operating system's port list.
func (b *ConfigBuilder) WithCatalog(c port.Catalog) *ConfigBuilder {
	b.config.catalog = c
	return b
}

// WithAddress bypasses port selection and always dials address.
func (b *ConfigBuilder) WithAddress(address string) *ConfigBuilder {
	b.config.address = address
	return b
}

// WithManufacturers replaces the manufacturer priority list used for port
// selection.
func (b *ConfigBuilder) WithManufacturers(manufacturers []string) *ConfigBuilder {
	b.config.policy = b.config.policy.WithManufacturers(manufacturers)
	return b
}

// WithPrime enables interrupting any running program and forcing the normal
// REPL right after connecting.
func (b *ConfigBuilder) WithPrime(prime bool) *ConfigBuilder {
	b.config.prime = prime
	return b
}

func (b *ConfigBuilder) WithBanners(banners repl.Banners) *ConfigBuilder {
	b.config.banners = banners
	return b
}

func (b *ConfigBuilder) WithLogger(logger *slog.Logger) *ConfigBuilder {
	b.config.logger = logger
	return b
}

// WithEventBuffer sets the capacity of the Events channel.
func (b *ConfigBuilder) WithEventBuffer(n int) *ConfigBuilder {
	b.config.eventBuffer = n
	return b
}

func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	b.config.setDefaults()
	return b.config, nil
}
