// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Engine-neutral socket core shared by every packet backend.
// Core owns the receive slot table, per-slot lengths and atomic counters;
// TxBatch stages outgoing frames until the engine flushes them. Backends
// only add the engine-specific receive and transmit calls.

package transport
