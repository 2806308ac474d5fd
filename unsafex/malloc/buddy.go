package malloc

import (
	"fmt"
	"log/slog"
	"math/bits"
	"unsafe"
)

// BuddyAllocator manages a single power-of-two arena with the buddy system.
//
// Every block carries a HeaderSize header at its start and has a total size
// of exactly 2^k bytes for its order k. Free blocks of each order are kept in
// a doubly linked list whose links live in the block headers, so all the
// bookkeeping is stored inside the arena itself. Blocks are addressed by
// their offset from the start of the arena.
//
// A BuddyAllocator is not safe for concurrent use, see SyncAllocator.
type BuddyAllocator struct {
	// arena is the memory we are managing.
	arena []byte

	// arenaStart is a cached pointer to the start of the arena,
	// used to turn slices passed to Free back into offsets.
	arenaStart unsafe.Pointer

	// freeLists[k] is the offset of the first free block of order k, or nilOffset.
	// Entries below lowerK are never used.
	freeLists []int

	// lowerK is the smallest order whose block has room for at least one payload byte.
	lowerK int
	// upperK is log2(len(arena)).
	upperK int

	// inUse and inUseBytes count live allocations and the total size of their blocks.
	inUse      int
	inUseBytes int

	logger *slog.Logger
	trace  bool
}

// NewBuddyAllocator creates a buddy allocator that manages the whole arena.
// The arena's size MUST be a power of two and large enough to be split at
// least once, i.e. >= 2 * MinBlockSize.
func NewBuddyAllocator(arena []byte, o *Option) (*BuddyAllocator, error) {
	size := len(arena)
	if size <= 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: arena size must be a power of two, got %d", ErrInitialization, size)
	}
	upperK := bits.TrailingZeros(uint(size))
	lowerK := bits.Len(uint(HeaderSize))
	if upperK <= lowerK {
		return nil, fmt.Errorf("%w: arena size must be >= %d, got %d", ErrInitialization, 2*blockSize(lowerK), size)
	}

	a := &BuddyAllocator{
		arena:      arena,
		arenaStart: unsafe.Pointer(&arena[0]),
		freeLists:  make([]int, upperK+1),
		lowerK:     lowerK,
		upperK:     upperK,
		logger:     o.logger(),
		trace:      o != nil && o.Trace,
	}
	a.format()
	return a, nil
}

// MustNewBuddyAllocator is like NewBuddyAllocator but panics if the arena is unusable.
func MustNewBuddyAllocator(arena []byte, o *Option) *BuddyAllocator {
	a, err := NewBuddyAllocator(arena, o)
	if err != nil {
		panic(err)
	}
	return a
}

// Allocate reserves a block with room for at least size bytes and returns
// the offset of its payload within the arena.
//
// Among several free blocks of the chosen order, the one with the lowest
// offset is used, so a given sequence of calls always produces the same layout.
func (a *BuddyAllocator) Allocate(size int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("%w, got %d", ErrInvalidSize, size)
	}
	order := -1
	if size <= len(a.arena) {
		order = a.orderForSize(size + HeaderSize)
	}
	if order < 0 {
		return 0, fmt.Errorf("%w: %d bytes, max %d", ErrRequestTooLarge, size, len(a.arena)-HeaderSize)
	}
	a.traceFreeLists("before allocate")

	found := a.firstNonEmptyAtOrAbove(order)
	if found < 0 {
		return 0, fmt.Errorf("%w: no free block of order >= %d", ErrOutOfMemory, order)
	}
	var off int
	if found > order {
		off = a.cascadeSplit(found, order)
	} else {
		off = a.pickLowestAddress(order)
	}
	if off < 0 {
		return 0, fmt.Errorf("%w: no free block of order >= %d", ErrOutOfMemory, order)
	}
	a.eject(off)
	a.setAllocated(off, true)
	a.inUse++
	a.inUseBytes += blockSize(order)

	if a.debug() {
		a.logger.Debug("allocate", "size", size, "order", order, "from", found, "offset", off)
	}
	a.traceFreeLists("after allocate")
	return off + HeaderSize, nil
}

// Release returns the block whose payload starts at offset p to the
// allocator and merges it with its buddies as far as possible.
//
// p must be a value returned by Allocate and not released since. Offsets
// outside the arena, misaligned offsets and blocks that are not allocated
// are rejected with ErrInvalidPointer and leave the allocator untouched.
func (a *BuddyAllocator) Release(p int) error {
	off, order, err := a.lookup(p)
	if err != nil {
		return err
	}
	a.traceFreeLists("before release")

	a.setAllocated(off, false)
	a.insert(off)
	a.inUse--
	a.inUseBytes -= blockSize(order)

	for k := order; k < a.upperK; k++ {
		merged, ok := a.coalesce(off)
		if !ok {
			break
		}
		off = merged
	}

	if a.debug() {
		a.logger.Debug("release", "offset", p-HeaderSize, "order", order, "merged", off, "mergedOrder", a.orderForBlock(off))
	}
	a.traceFreeLists("after release")
	return nil
}

// lookup validates a payload offset and returns its block offset and order.
func (a *BuddyAllocator) lookup(p int) (off, order int, err error) {
	off = p - HeaderSize
	if off < 0 || off+HeaderSize > len(a.arena) {
		return 0, 0, fmt.Errorf("%w: offset %d not in arena", ErrInvalidPointer, p)
	}
	if off&(MinBlockSize-1) != 0 {
		return 0, 0, fmt.Errorf("%w: offset %d is misaligned", ErrInvalidPointer, p)
	}
	if !a.hasMagic(off) {
		return 0, 0, fmt.Errorf("%w: no block header at offset %d", ErrInvalidPointer, p)
	}
	order = a.orderForBlock(off)
	if order < a.lowerK || order > a.upperK || off&(blockSize(order)-1) != 0 {
		return 0, 0, fmt.Errorf("%w: bad block header at offset %d", ErrInvalidPointer, p)
	}
	if !a.allocated(off) {
		return 0, 0, fmt.Errorf("%w: double free or invalid block at offset %d", ErrInvalidPointer, p)
	}
	return off, order, nil
}

// Alloc allocates a block of memory of at least size bytes and returns its
// payload with len == size and cap == the payload capacity of the block.
func (a *BuddyAllocator) Alloc(size int) ([]byte, error) {
	p, err := a.Allocate(size)
	if err != nil {
		return nil, err
	}
	end := p + a.payloadSize(p-HeaderSize)
	return a.arena[p : p+size : end], nil
}

// Free returns a slice obtained from Alloc to the allocator.
// Freeing a nil or zero-capacity slice is a no-op.
//
// IMPORTANT: The block must start where the slice returned by Alloc starts.
// Do not reslice (e.g., block[n:]) before calling Free.
func (a *BuddyAllocator) Free(block []byte) error {
	if cap(block) == 0 {
		return nil
	}
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(block)))
	start := uintptr(a.arenaStart)
	if ptr < start || ptr >= start+uintptr(len(a.arena)) {
		return fmt.Errorf("%w: block not in arena", ErrInvalidPointer)
	}
	return a.Release(int(ptr - start))
}

// Payload returns the full payload of the live allocation at offset p,
// or nil if p is not a live allocation.
func (a *BuddyAllocator) Payload(p int) []byte {
	off, order, err := a.lookup(p)
	if err != nil {
		return nil
	}
	end := off + blockSize(order)
	return a.arena[p:end:end]
}

// Offset returns the payload offset of a slice returned by Alloc.
func (a *BuddyAllocator) Offset(block []byte) int {
	return int(uintptr(unsafe.Pointer(unsafe.SliceData(block))) - uintptr(a.arenaStart))
}

// Available returns the total free payload bytes.
func (a *BuddyAllocator) Available() int {
	total := 0
	for k := a.lowerK; k <= a.upperK; k++ {
		for off := a.freeLists[k]; off != nilOffset; off = a.next(off) {
			total += blockSize(k) - HeaderSize
		}
	}
	return total
}

// Size returns the size of the arena.
func (a *BuddyAllocator) Size() int {
	return len(a.arena)
}

// Orders returns the smallest and the largest block order of the allocator.
func (a *BuddyAllocator) Orders() (lower, upper int) {
	return a.lowerK, a.upperK
}

// Reset drops all allocations and returns the allocator to its initial
// state: a single free block spanning the arena. Offsets handed out before
// the reset are rejected by Release afterwards.
func (a *BuddyAllocator) Reset() {
	a.Walk(func(b Block) bool {
		a.clearHeader(b.Offset)
		return true
	})
	a.format()
}

// format writes a single free block spanning the arena.
func (a *BuddyAllocator) format() {
	for k := range a.freeLists {
		a.freeLists[k] = nilOffset
	}
	a.writeHeader(0, a.upperK, false)
	a.insert(0)
	a.inUse = 0
	a.inUseBytes = 0
}
