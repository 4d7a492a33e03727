// File: mpsc/channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mpsc

import "github.com/momentics/hioload-pktio/api"

// New creates a channel whose lanes hold capacity descriptors, using the
// default limits for everything else.
func New[T api.Index](capacity int) (*Producer[T], *Consumer[T], error) {
	return NewWithConfig[T](DefaultConfig(capacity))
}

// NewWithConfig creates the registry, the first lane and the bound
// Producer/Consumer pair.
func NewWithConfig[T api.Index](cfg Config) (*Producer[T], *Consumer[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	reg := newRegistry(&cfg)
	l, err := reg.register()
	if err != nil {
		return nil, nil, err
	}
	c := &Consumer[T]{
		reg:   reg,
		cache: make([]api.Descriptor, 0, cfg.ConsumerCache),
	}
	return newProducer[T](l, reg, cfg.ProducerBatch), c, nil
}
