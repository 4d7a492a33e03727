// File: mpsc/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mpsc

import (
	"go.uber.org/zap"

	"github.com/momentics/hioload-pktio/api"
)

const (
	// DefaultMaxLanes bounds the number of live lanes per channel.
	DefaultMaxLanes = 4096
	// DefaultProducerBatch is the local producer buffer size.
	DefaultProducerBatch = 16
	// DefaultConsumerCache is the consumer-side cache size.
	DefaultConsumerCache = 1024
)

// Config holds parameters fixed for the lifetime of a channel.
type Config struct {
	LaneCapacity  int // Descriptors each lane can hold; shared by every clone
	MaxLanes      int // Upper bound on registered lanes
	ProducerBatch int // Local producer buffer, flushed when full
	ConsumerCache int // Descriptors a single Sync can cache

	Logger   *zap.Logger // Lifecycle logging; nil means no logging
	Observer Observer    // Counters hook; nil means no accounting
}

// DefaultConfig returns defaults for a channel whose lanes hold capacity descriptors.
func DefaultConfig(capacity int) Config {
	return Config{
		LaneCapacity:  capacity,
		MaxLanes:      DefaultMaxLanes,
		ProducerBatch: DefaultProducerBatch,
		ConsumerCache: DefaultConsumerCache,
	}
}

// Validate checks every limit is positive.
func (c *Config) Validate() error {
	check := func(name string, v int) error {
		if v > 0 {
			return nil
		}
		return api.NewError(api.ErrCodeInvalidArgument, "mpsc: "+name+" must be positive").
			WithContext(name, v).
			WithCause(api.ErrInvalidArgument)
	}
	if err := check("lane_capacity", c.LaneCapacity); err != nil {
		return err
	}
	if err := check("max_lanes", c.MaxLanes); err != nil {
		return err
	}
	if err := check("producer_batch", c.ProducerBatch); err != nil {
		return err
	}
	return check("consumer_cache", c.ConsumerCache)
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Config) observer() Observer {
	if c.Observer == nil {
		return nopObserver{}
	}
	return c.Observer
}
