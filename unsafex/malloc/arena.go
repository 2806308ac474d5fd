package malloc

import (
	"fmt"

	"github.com/cloudwego/buddyarena/internal/vmem"
)

// Arena is a BuddyAllocator over memory it reserves itself.
//
// The memory is reserved once in NewArena and given back in Close.
// Its base address is aligned to its size, so block offsets are
// aligned addresses as well.
type Arena struct {
	*BuddyAllocator

	region *vmem.Region
}

// NewArena reserves size bytes, which MUST be a power of two, and returns
// an allocator managing them. Pages come from the OS unless o.Heap is set.
func NewArena(size int, o *Option) (*Arena, error) {
	reserve := vmem.Reserve
	if o != nil && o.Heap {
		reserve = vmem.ReserveHeap
	}
	r, err := reserve(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	if r.Addr()&uintptr(size-1) != 0 {
		_ = r.Release()
		return nil, fmt.Errorf("%w: arena at %#x is not aligned to %d", ErrInitialization, r.Addr(), size)
	}
	a, err := NewBuddyAllocator(r.Bytes(), o)
	if err != nil {
		_ = r.Release()
		return nil, err
	}
	a.logger.Debug("arena reserved", "size", size, "heap", o != nil && o.Heap, "orders", fmt.Sprintf("%d..%d", a.lowerK, a.upperK))
	return &Arena{BuddyAllocator: a, region: r}, nil
}

// Close releases the arena memory. The allocator and every slice obtained
// from it must not be used afterwards.
func (a *Arena) Close() error {
	return a.region.Release()
}
