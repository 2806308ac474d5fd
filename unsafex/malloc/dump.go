package malloc

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bytedance/gopkg/lang/mcache"
)

// Block describes one block of the arena.
type Block struct {
	// Offset is the offset of the block header within the arena.
	// The payload starts at Offset + HeaderSize.
	Offset int
	// Order is log2 of the block size.
	Order int
	// Size is the total size of the block, header included.
	Size int
	// Allocated reports whether the block is owned by a caller.
	Allocated bool
}

// Stats holds allocator usage counters.
type Stats struct {
	TotalSize   int
	InUseBlocks int
	InUseSize   int // block sizes, headers included
	FreeBlocks  int
	FreeSize    int
	// FreeByOrder[k] is the number of free blocks of order k.
	FreeByOrder []int
}

// Walk calls fn for every block in address order until fn returns false.
// It follows block sizes from the start of the arena, so it must only be
// used on an arena that passes Check.
func (a *BuddyAllocator) Walk(fn func(b Block) bool) {
	for off := 0; off < len(a.arena); {
		k := a.orderForBlock(off)
		if k < a.lowerK || k > a.upperK {
			return
		}
		if !fn(Block{Offset: off, Order: k, Size: blockSize(k), Allocated: a.allocated(off)}) {
			return
		}
		off += blockSize(k)
	}
}

// Blocks returns all blocks in address order.
func (a *BuddyAllocator) Blocks() []Block {
	var blocks []Block
	a.Walk(func(b Block) bool {
		blocks = append(blocks, b)
		return true
	})
	return blocks
}

// FreeBlocks returns the offsets of the free blocks of the given order in list order.
func (a *BuddyAllocator) FreeBlocks(order int) []int {
	if order < a.lowerK || order > a.upperK {
		return nil
	}
	var offs []int
	for off := a.freeLists[order]; off != nilOffset; off = a.next(off) {
		offs = append(offs, off)
	}
	return offs
}

// Stats returns usage counters.
func (a *BuddyAllocator) Stats() Stats {
	s := Stats{
		TotalSize:   len(a.arena),
		InUseBlocks: a.inUse,
		InUseSize:   a.inUseBytes,
		FreeByOrder: make([]int, a.upperK+1),
	}
	for k := a.lowerK; k <= a.upperK; k++ {
		for off := a.freeLists[k]; off != nilOffset; off = a.next(off) {
			s.FreeByOrder[k]++
			s.FreeBlocks++
			s.FreeSize += blockSize(k)
		}
	}
	return s
}

// Check verifies that the blocks tile the arena exactly, that the free lists
// hold exactly the free blocks with consistent links, and that no two free
// buddies were left unmerged. It returns an error wrapping ErrCorrupt.
func (a *BuddyAllocator) Check() error {
	free := make(map[int]int)
	allocated := 0
	off := 0
	for off < len(a.arena) {
		if off+HeaderSize > len(a.arena) || !a.hasMagic(off) {
			return fmt.Errorf("%w: no block header at %d", ErrCorrupt, off)
		}
		k := a.orderForBlock(off)
		if k < a.lowerK || k > a.upperK {
			return fmt.Errorf("%w: block at %d has invalid order %d", ErrCorrupt, off, k)
		}
		if off&(blockSize(k)-1) != 0 || off+blockSize(k) > len(a.arena) {
			return fmt.Errorf("%w: block at %d of order %d is misplaced", ErrCorrupt, off, k)
		}
		if a.allocated(off) {
			allocated++
		} else {
			free[off] = k
		}
		off += blockSize(k)
	}
	if off != len(a.arena) {
		return fmt.Errorf("%w: blocks end at %d, arena size %d", ErrCorrupt, off, len(a.arena))
	}
	if allocated != a.inUse {
		return fmt.Errorf("%w: %d allocated blocks, %d accounted", ErrCorrupt, allocated, a.inUse)
	}

	linked := 0
	limit := len(a.arena) / MinBlockSize
	for k := a.lowerK; k <= a.upperK; k++ {
		prev := nilOffset
		for off := a.freeLists[k]; off != nilOffset; off = a.next(off) {
			if linked++; linked > limit {
				return fmt.Errorf("%w: cycle in free list of order %d", ErrCorrupt, k)
			}
			order, ok := free[off]
			if !ok || order != k {
				return fmt.Errorf("%w: free list of order %d holds %d which is not a free block of that order", ErrCorrupt, k, off)
			}
			if a.prev(off) != prev {
				return fmt.Errorf("%w: broken back link at %d", ErrCorrupt, off)
			}
			prev = off
		}
	}
	if linked != len(free) {
		return fmt.Errorf("%w: %d free blocks, %d linked", ErrCorrupt, len(free), linked)
	}

	for off, k := range free {
		if k == a.upperK {
			continue
		}
		if order, ok := free[buddyOf(off, k)]; ok && order == k {
			return fmt.Errorf("%w: free buddies at %d and %d of order %d", ErrCorrupt, off, buddyOf(off, k), k)
		}
	}
	return nil
}

// Dump writes the free lists, largest order first, one line per order:
//
//	k = 7 contains: 128 <-> 128 <-> NULL;
func (a *BuddyAllocator) Dump(w io.Writer) error {
	buf := a.appendFreeLists(mcache.Malloc(0, 1024))
	_, err := w.Write(buf)
	mcache.Free(buf)
	return err
}

func (a *BuddyAllocator) appendFreeLists(buf []byte) []byte {
	for k := a.upperK; k >= a.lowerK; k-- {
		buf = append(buf, "k = "...)
		buf = strconv.AppendInt(buf, int64(k), 10)
		buf = append(buf, " contains: "...)
		for off := a.freeLists[k]; off != nilOffset; off = a.next(off) {
			buf = strconv.AppendInt(buf, int64(blockSize(k)), 10)
			buf = append(buf, " <-> "...)
		}
		buf = append(buf, "NULL;\n"...)
	}
	return buf
}

func (a *BuddyAllocator) traceFreeLists(msg string) {
	if !a.trace || !a.debug() {
		return
	}
	buf := a.appendFreeLists(mcache.Malloc(0, 1024))
	a.logger.Debug(msg, "freelists", string(buf))
	mcache.Free(buf)
}
