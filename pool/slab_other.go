//go:build !linux
// +build !linux

// File: pool/slab_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

func newSlab(size int) []byte {
	return make([]byte, size)
}
