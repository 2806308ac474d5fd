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
package vmem

import (
	"errors"
	"os"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserve(t *testing.T) {
	sizes := []int{128, 4096, 64 << 10, 1 << 20, 8 << 20}
	for _, size := range sizes {
		r, err := Reserve(size)
		require.NoError(t, err, "size=%d", size)
		b := r.Bytes()
		assert.Equal(t, size, len(b))
		assert.Equal(t, size, cap(b))
		assert.Zero(t, r.Addr()&uintptr(size-1), "size=%d not aligned", size)

		// pages come zeroed and writable
		assert.Equal(t, byte(0), b[0])
		assert.Equal(t, byte(0), b[size-1])
		b[0], b[size-1] = 1, 2
		assert.Equal(t, byte(1), b[0])
		assert.Equal(t, byte(2), b[size-1])

		require.NoError(t, r.Release())
		assert.Nil(t, r.Bytes())
		assert.NoError(t, r.Release())
	}
}

func TestReserveFootprint(t *testing.T) {
	page := os.Getpagesize()
	for _, size := range []int{128, page, 2 * page, 1 << 20} {
		r, err := Reserve(size)
		require.NoError(t, err, "size=%d", size)
		assert.LessOrEqual(t, len(r.raw), 2*size, "size=%d", size)
		if pageAligned && size <= page {
			assert.Equal(t, size, len(r.raw), "size=%d", size)
		}
		require.NoError(t, r.Release())
	}
}

func TestReserveHeap(t *testing.T) {
	for _, size := range []int{64, 1024, 1 << 16, 1 << 20} {
		r, err := ReserveHeap(size)
		require.NoError(t, err)
		assert.Equal(t, size, len(r.Bytes()))
		assert.Zero(t, r.Addr()&uintptr(size-1))
		assert.NoError(t, r.Release())
		assert.Zero(t, r.Addr())
	}
}

func TestReserveBadSize(t *testing.T) {
	for _, size := range []int{-1, 0, 3, 100, 65535} {
		_, err := Reserve(size)
		assert.True(t, errors.Is(err, ErrSize), "size=%d", size)
		_, err = ReserveHeap(size)
		assert.True(t, errors.Is(err, ErrSize), "size=%d", size)
	}
}

func TestAlignedWindow(t *testing.T) {
	raw := make([]byte, 2*4096)
	w := alignedWindow(raw, 4096)
	assert.Equal(t, 4096, len(w))
	assert.Equal(t, 4096, cap(w))
	assert.Zero(t, uintptr(unsafe.Pointer(&w[0]))&4095)
}
