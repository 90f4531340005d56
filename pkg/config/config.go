// Package config loads runtime settings for the rudpserver binary.
// Grounded on the teacher's core/main.go loadConfig(), generalized from a
// hardcoded SA-MP server config struct to one populated from the
// environment via github.com/sethvargo/go-envconfig, since a real deployed
// listener needs its bind address and protocol knobs configurable without a
// recompile.
package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/ventos-labs/rudp/pkg/rudp"
)

// Config is the full set of values needed to stand up a rudpserver
// listener.
type Config struct {
	Host string `env:"RUDP_HOST, default=0.0.0.0"`
	Port int    `env:"RUDP_PORT, default=7777"`

	LogLevel string `env:"RUDP_LOG_LEVEL, default=info"`

	SegmentSize        int           `env:"RUDP_SEGMENT_SIZE, default=512"`
	WindowSize         int           `env:"RUDP_WINDOW_SIZE, default=32"`
	PacketTimeout      time.Duration `env:"RUDP_PACKET_TIMEOUT, default=300ms"`
	BareAckTimeout     time.Duration `env:"RUDP_BARE_ACK_TIMEOUT, default=100ms"`
	KeepAliveTimeout   time.Duration `env:"RUDP_KEEPALIVE_TIMEOUT, default=5s"`
	MaxRetransmissions int           `env:"RUDP_MAX_RETRANSMISSIONS, default=5"`
}

// Load populates a Config from the environment, falling back to the
// defaults declared in the struct tags above.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RUDPConfig projects the protocol-affecting fields onto rudp.Config.
func (c Config) RUDPConfig() rudp.Config {
	return rudp.Config{
		SegmentSize:        c.SegmentSize,
		WindowSize:         c.WindowSize,
		PacketTimeout:      c.PacketTimeout,
		BareAckTimeout:     c.BareAckTimeout,
		KeepAliveTimeout:   c.KeepAliveTimeout,
		MaxRetransmissions: c.MaxRetransmissions,
	}
}
