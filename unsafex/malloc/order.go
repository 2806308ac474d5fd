package malloc

import "math/bits"

// blockSize returns the total size, header included, of a block of the given order.
func blockSize(order int) int {
	return 1 << uint(order)
}

// orderForSize returns the smallest order k in [lowerK, upperK] with
// 2^(k-1) < size <= 2^k, or -1 if size does not fit in the arena.
// Sizes at or below 2^lowerK all land in lowerK.
func (a *BuddyAllocator) orderForSize(size int) int {
	if size <= blockSize(a.lowerK) {
		return a.lowerK
	}
	order := bits.Len(uint(size - 1))
	if order > a.upperK {
		return -1
	}
	return order
}

// orderForBlock returns log2 of the total size of the block at off,
// or -1 if the header does not describe a power-of-two block.
func (a *BuddyAllocator) orderForBlock(off int) int {
	size := uint(a.payloadSize(off) + HeaderSize)
	if size&(size-1) != 0 {
		return -1
	}
	return bits.Len(size) - 1
}
