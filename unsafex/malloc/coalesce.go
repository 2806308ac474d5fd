package malloc

// buddyOf returns the offset of the buddy of a block of the given order at off.
// Every block offset is a multiple of its own size, so flipping the size bit
// moves between the two halves of the parent.
func buddyOf(off, order int) int {
	return off ^ blockSize(order)
}

// coalesce merges the free, linked block at off with its buddy if the buddy
// is a free block of the same order. It returns the merged block and true,
// or off and false when no merge is possible, in which case off stays linked.
func (a *BuddyAllocator) coalesce(off int) (int, bool) {
	k := a.orderForBlock(off)
	if k >= a.upperK {
		return off, false
	}
	buddy := buddyOf(off, k)
	if buddy+HeaderSize > len(a.arena) || a.allocated(buddy) || a.orderForBlock(buddy) != k {
		return off, false
	}

	a.eject(off)
	a.eject(buddy)
	merged := off
	if buddy < merged {
		merged = buddy
	}
	a.writeHeader(merged, k+1, false)
	a.insert(merged)

	if a.debug() {
		a.logger.Debug("coalesce", "offset", off, "buddy", buddy, "order", k+1)
	}
	return merged, true
}
