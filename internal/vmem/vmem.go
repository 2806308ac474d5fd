// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package vmem reserves the memory regions that back buddy arenas.
//
// A region of size n is always aligned to n, so block offsets within it are
// also aligned absolute addresses.
package vmem

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// ErrSize is returned for region sizes that are not a positive power of two.
var ErrSize = errors.New("vmem: size must be a positive power of two")

// Region is a reserved, size-aligned memory region.
type Region struct {
	data    []byte
	raw     []byte
	release func([]byte) error
}

// Reserve reserves and commits size bytes of zeroed pages from the OS,
// aligned to size. Release must be called to give them back.
func Reserve(size int) (*Region, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	n := size
	if size > os.Getpagesize() || !pageAligned {
		// over-reserve and pick an aligned window
		n = 2 * size
	}
	raw, release, err := osReserve(n)
	if err != nil {
		return nil, fmt.Errorf("vmem: reserve %d bytes: %w", n, err)
	}
	return &Region{data: alignedWindow(raw, size), raw: raw, release: release}, nil
}

// ReserveHeap returns a size-aligned region carved from the Go heap.
// Its contents are not zeroed.
func ReserveHeap(size int) (*Region, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	return reserveHeap(size), nil
}

func reserveHeap(size int) *Region {
	raw := dirtmake.Bytes(2*size, 2*size)
	return &Region{data: alignedWindow(raw, size), raw: raw}
}

// Bytes returns the region. It must not be used after Release.
func (r *Region) Bytes() []byte {
	return r.data
}

// Addr returns the address of the first byte of the region.
func (r *Region) Addr() uintptr {
	if len(r.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&r.data[0]))
}

// Release returns the region to where it came from. Calling it again is a no-op.
func (r *Region) Release() error {
	raw := r.raw
	r.data, r.raw = nil, nil
	if raw == nil || r.release == nil {
		return nil
	}
	return r.release(raw)
}

func checkSize(size int) error {
	if size <= 0 || size&(size-1) != 0 {
		return fmt.Errorf("%w, got %d", ErrSize, size)
	}
	return nil
}

// alignedWindow returns the first size bytes of raw that start at an address aligned to size.
// raw must be at least size bytes longer than needed for the padding, 2*size always is.
func alignedWindow(raw []byte, size int) []byte {
	base := uintptr(unsafe.Pointer(&raw[0]))
	pad := int((uintptr(size) - base&uintptr(size-1)) & uintptr(size-1))
	return raw[pad : pad+size : pad+size]
}
