package malloc

import "encoding/binary"

const (
	// HeaderSize is the size of the header stored at the start of every block.
	// The payload returned to callers starts right after it.
	HeaderSize = 32

	// MinBlockSize is the size of the smallest block, header included:
	// the smallest power of two leaving at least one payload byte.
	MinBlockSize = HeaderSize << 1

	// magic is written with every header and checked on Release.
	magic uint32 = 0xBADF00D

	// nilOffset terminates free lists.
	nilOffset = -1
)

// header layout, little endian:
//
//	[0:8]   payload size, 2^k - HeaderSize
//	[8:12]  magic
//	[12:16] allocated flag
//	[16:24] next free block of the same order
//	[24:32] previous free block of the same order
const (
	hdrPayload   = 0
	hdrMagic     = 8
	hdrAllocated = 12
	hdrNext      = 16
	hdrPrev      = 24
)

func (a *BuddyAllocator) hdr(off int) []byte {
	return a.arena[off : off+HeaderSize : off+HeaderSize]
}

// writeHeader formats a fresh, unlinked block header of the given order.
func (a *BuddyAllocator) writeHeader(off, order int, allocated bool) {
	h := a.hdr(off)
	binary.LittleEndian.PutUint64(h[hdrPayload:], uint64(blockSize(order)-HeaderSize))
	binary.LittleEndian.PutUint32(h[hdrMagic:], magic)
	var flag uint32
	if allocated {
		flag = 1
	}
	binary.LittleEndian.PutUint32(h[hdrAllocated:], flag)
	a.setNext(off, nilOffset)
	a.setPrev(off, nilOffset)
}

// clearHeader drops the magic and the allocated flag, so the block no longer
// passes Release validation. The payload size is kept for Walk.
func (a *BuddyAllocator) clearHeader(off int) {
	binary.LittleEndian.PutUint32(a.arena[off+hdrMagic:], 0)
	a.setAllocated(off, false)
}

func (a *BuddyAllocator) payloadSize(off int) int {
	return int(binary.LittleEndian.Uint64(a.arena[off+hdrPayload:]))
}

func (a *BuddyAllocator) hasMagic(off int) bool {
	return binary.LittleEndian.Uint32(a.arena[off+hdrMagic:]) == magic
}

func (a *BuddyAllocator) allocated(off int) bool {
	return binary.LittleEndian.Uint32(a.arena[off+hdrAllocated:]) != 0
}

func (a *BuddyAllocator) setAllocated(off int, v bool) {
	var flag uint32
	if v {
		flag = 1
	}
	binary.LittleEndian.PutUint32(a.arena[off+hdrAllocated:], flag)
}

func (a *BuddyAllocator) next(off int) int {
	return int(int64(binary.LittleEndian.Uint64(a.arena[off+hdrNext:])))
}

func (a *BuddyAllocator) setNext(off, v int) {
	binary.LittleEndian.PutUint64(a.arena[off+hdrNext:], uint64(int64(v)))
}

func (a *BuddyAllocator) prev(off int) int {
	return int(int64(binary.LittleEndian.Uint64(a.arena[off+hdrPrev:])))
}

func (a *BuddyAllocator) setPrev(off, v int) {
	binary.LittleEndian.PutUint64(a.arena[off+hdrPrev:], uint64(int64(v)))
}
