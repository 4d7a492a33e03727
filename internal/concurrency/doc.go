// Package concurrency
// Author: momentics <momentics@gmail.com>
//
// Single-producer single-consumer ring buffers used as mpsc lanes.
package concurrency
