// Package pool
// Author: momentics <momentics@gmail.com>
//
// Frame memory for packet sockets.
// SlotPool hands out fixed-size frames named by api.Descriptor values and
// takes them back through an mpsc descriptor channel, so frames can be
// released from any goroutine without locking the receive path.
package pool
