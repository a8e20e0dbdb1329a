// Package alloc provides 16-byte-aligned float32 buffer allocation for the
// mixer's SIMD-group accumulators and per-channel source data (spec §4.A).
//
// Go's runtime allocator already aligns []float32 backing arrays well beyond
// 4 bytes, so strict alignment is rarely load-bearing here. This package
// keeps the aligned-allocation shape anyway — overallocate, locate the first
// 16-byte-aligned address, stash the byte offset immediately before it — so
// the mixer and the WAV/OGG decoders have one real implementation to depend
// on if they ever need to hand a buffer to non-Go SIMD code.
package alloc

import "unsafe"

// Alignment is the byte alignment all mixer/source buffers are guaranteed.
const Alignment = 16

// WideGroup is the number of float32 samples in one SIMD-group ("wide
// group" in the glossary); buffers are always sized to a multiple of it.
const WideGroup = 4

// Buffer is a 16-byte-aligned slice of float32 samples plus the raw
// backing storage needed to recover the original allocation.
type Buffer struct {
	raw    []byte
	offset uintptr
	data   []float32
}

// Float32 allocates a 16-byte-aligned buffer of n float32 samples, rounded
// up to a multiple of WideGroup. Trailing padding lanes are zeroed so SIMD
// reads past the caller's requested length read silence.
func Float32(n int) *Buffer {
	padded := roundUp(n, WideGroup)
	byteLen := padded * 4

	// Overallocate by Alignment so an aligned address is always reachable,
	// plus one byte to store the offset used to recover it.
	raw := make([]byte, byteLen+Alignment+1)

	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (base + 1 + Alignment - 1) &^ (Alignment - 1)
	offset := aligned - base

	// Stash the offset in the byte immediately preceding the aligned
	// region, per spec §4.A's "offset byte" recovery scheme.
	raw[offset-1] = byte(offset)

	ptr := unsafe.Pointer(&raw[offset])
	data := unsafe.Slice((*float32)(ptr), padded)
	for i := n; i < padded; i++ {
		data[i] = 0
	}

	return &Buffer{raw: raw, offset: offset, data: data}
}

// Data returns the aligned float32 view, including any zero-padded tail.
func (b *Buffer) Data() []float32 {
	return b.data
}

// Clear zeroes every sample in the buffer, including the padding tail.
func (b *Buffer) Clear() {
	for i := range b.data {
		b.data[i] = 0
	}
}

// Base recovers the address of the original, unaligned allocation using the
// stashed offset byte — mirrors the recovery step a native free() would
// perform; Go's GC reclaims the buffer once Buffer is unreachable, so this
// exists for fidelity with spec §4.A and for callers that hand the backing
// array to non-Go code.
func (b *Buffer) Base() uintptr {
	aligned := uintptr(unsafe.Pointer(&b.raw[b.offset]))
	return aligned - uintptr(b.raw[b.offset-1])
}

func roundUp(n, multiple int) int {
	if n <= 0 {
		return multiple
	}
	rem := n % multiple
	if rem == 0 {
		return n
	}
	return n + (multiple - rem)
}
