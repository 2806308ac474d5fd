package malloc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	a := newTestBuddyAllocator(t, 512)
	var buf bytes.Buffer
	require.NoError(t, a.Dump(&buf))
	assert.Equal(t, "k = 9 contains: 512 <-> NULL;\n"+
		"k = 8 contains: NULL;\n"+
		"k = 7 contains: NULL;\n"+
		"k = 6 contains: NULL;\n", buf.String())

	p, err := a.Allocate(1)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, a.Dump(&buf))
	assert.Equal(t, "k = 9 contains: NULL;\n"+
		"k = 8 contains: 256 <-> NULL;\n"+
		"k = 7 contains: 128 <-> NULL;\n"+
		"k = 6 contains: 64 <-> NULL;\n", buf.String())

	require.NoError(t, a.Release(p))
	buf.Reset()
	require.NoError(t, a.Dump(&buf))
	assert.Equal(t, "k = 9 contains: 512 <-> NULL;\n"+
		"k = 8 contains: NULL;\n"+
		"k = 7 contains: NULL;\n"+
		"k = 6 contains: NULL;\n", buf.String())
}

func TestDumpSameOrder(t *testing.T) {
	a := newTestBuddyAllocator(t, 1024)
	var ps []int
	for i := 0; i < 4; i++ {
		p, err := a.Allocate(100)
		require.NoError(t, err)
		ps = append(ps, p)
	}
	require.NoError(t, a.Release(ps[1]))
	require.NoError(t, a.Release(ps[3]))

	var buf bytes.Buffer
	require.NoError(t, a.Dump(&buf))
	assert.Equal(t, "k = 10 contains: NULL;\n"+
		"k = 9 contains: NULL;\n"+
		"k = 8 contains: 256 <-> 256 <-> NULL;\n"+
		"k = 7 contains: NULL;\n"+
		"k = 6 contains: NULL;\n", buf.String())
}

type errWriter struct{}

var errWrite = errors.New("write failed")

func (errWriter) Write([]byte) (int, error) { return 0, errWrite }

func TestDumpWriteError(t *testing.T) {
	a := newTestBuddyAllocator(t, 512)
	assert.ErrorIs(t, a.Dump(errWriter{}), errWrite)
}

func TestStats(t *testing.T) {
	a := newTestBuddyAllocator(t, 64<<10)
	s := a.Stats()
	assert.Equal(t, 64<<10, s.TotalSize)
	assert.Equal(t, 0, s.InUseBlocks)
	assert.Equal(t, 1, s.FreeBlocks)
	assert.Equal(t, 64<<10, s.FreeSize)
	assert.Len(t, s.FreeByOrder, 17)
	assert.Equal(t, 1, s.FreeByOrder[16])

	_, err := a.Allocate(1)
	require.NoError(t, err)
	s = a.Stats()
	assert.Equal(t, 1, s.InUseBlocks)
	assert.Equal(t, 64, s.InUseSize)
	assert.Equal(t, 10, s.FreeBlocks)
	assert.Equal(t, 64<<10-64, s.FreeSize)
	for k := 6; k <= 15; k++ {
		assert.Equal(t, 1, s.FreeByOrder[k], "order %d", k)
	}
	assert.Equal(t, 0, s.FreeByOrder[16])
	assert.Equal(t, s.TotalSize, s.InUseSize+s.FreeSize)
}

func TestWalk(t *testing.T) {
	a := newTestBuddyAllocator(t, 1024)
	_, err := a.Allocate(1)
	require.NoError(t, err)

	assert.Equal(t, []Block{
		{Offset: 0, Order: 6, Size: 64, Allocated: true},
		{Offset: 64, Order: 6, Size: 64},
		{Offset: 128, Order: 7, Size: 128},
		{Offset: 256, Order: 8, Size: 256},
		{Offset: 512, Order: 9, Size: 512},
	}, a.Blocks())

	n := 0
	a.Walk(func(b Block) bool {
		n++
		return b.Offset < 128
	})
	assert.Equal(t, 3, n)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(a *BuddyAllocator)
	}{
		{"magic", func(a *BuddyAllocator) { a.arena[64+hdrMagic] = 0 }},
		{"in_use_count", func(a *BuddyAllocator) { a.inUse++ }},
		{"unlinked", func(a *BuddyAllocator) { a.eject(512) }},
		{"back_link", func(a *BuddyAllocator) { a.setPrev(64, 128) }},
		{"cycle", func(a *BuddyAllocator) { a.setNext(64, 64) }},
		{"misplaced", func(a *BuddyAllocator) { a.writeHeader(64, 7, false) }},
		{"bad_order", func(a *BuddyAllocator) { a.writeHeader(512, 11, false) }},
		{"wrong_list", func(a *BuddyAllocator) {
			a.eject(128)
			a.freeLists[7] = 256
		}},
		{"unmerged_buddies", func(a *BuddyAllocator) {
			a.setAllocated(0, false)
			a.insert(0)
			a.inUse--
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestBuddyAllocator(t, 1024)
			_, err := a.Allocate(1)
			require.NoError(t, err)
			require.NoError(t, a.Check())

			tt.corrupt(a)
			assert.ErrorIs(t, a.Check(), ErrCorrupt)
		})
	}
}
