// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Forwarder configuration: YAML file first, command-line flags on top.

package control

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/socket"
)

// Config describes one forwarding run.
type Config struct {
	Engine   string `yaml:"engine"`
	In       string `yaml:"in"`
	Out      string `yaml:"out"`
	InQueue  int    `yaml:"in_queue"`
	OutQueue int    `yaml:"out_queue"`
	LogLevel string `yaml:"log_level"`

	// Pipeline splits receive and transmit into two goroutines joined by
	// an mpsc channel of ChannelCapacity descriptors.
	Pipeline        bool `yaml:"pipeline"`
	ChannelCapacity int  `yaml:"channel_capacity"`

	// CPU pins the receive loop; negative disables pinning.
	CPU int `yaml:"cpu"`

	// MetricsAddr serves /metrics when non-empty.
	MetricsAddr string `yaml:"metrics_addr"`

	Sockets socket.Config `yaml:"sockets"`
}

// DefaultConfig returns a config that forwards between two pipes.
func DefaultConfig() Config {
	return Config{
		Engine:          string(socket.KindPipe),
		InQueue:         0,
		OutQueue:        0,
		LogLevel:        "info",
		ChannelCapacity: 1024,
		CPU:             -1,
		Sockets:         socket.DefaultConfig(),
	}
}

// LoadConfig reads path over DefaultConfig. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("control: open config: %w", err)
	}
	defer f.Close()
	return DecodeConfig(f)
}

// DecodeConfig parses YAML from r over DefaultConfig.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("control: decode config: %w", err)
	}
	return cfg, nil
}

// Encode renders c as YAML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate reports every problem found in c.
func (c Config) Validate() error {
	var err error
	if _, kerr := socket.ParseKind(c.Engine); kerr != nil {
		err = multierr.Append(err, kerr)
	}
	if c.In == "" {
		err = multierr.Append(err, invalid("in is required"))
	}
	if c.Out == "" {
		err = multierr.Append(err, invalid("out is required"))
	}
	if c.Pipeline && c.ChannelCapacity <= 0 {
		err = multierr.Append(err, invalid("channel_capacity must be positive"))
	}
	return err
}

func invalid(msg string) error {
	return api.NewError(api.ErrCodeInvalidArgument, "control: "+msg).WithCause(api.ErrInvalidArgument)
}
