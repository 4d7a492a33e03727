//go:build linux
// +build linux

// File: pool/slab_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "golang.org/x/sys/unix"

// hugeSlab is the slab size from which transparent huge pages are requested.
const hugeSlab = 2 << 20

// newSlab allocates frame memory on the Go heap and asks the kernel to back
// large slabs with huge pages. The advice is best effort.
func newSlab(size int) []byte {
	b := make([]byte, size)
	if size >= hugeSlab {
		_ = unix.Madvise(b, unix.MADV_HUGEPAGE)
	}
	return b
}
