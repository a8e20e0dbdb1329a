// Wide-group accumulate/convert stages (spec §4.F steps 2 and 5, §9). Each
// function operates on contiguous groups of alloc.WideGroup (4) samples, as
// spec §9 asks for so a platform-specific SIMD implementation could later
// slot in behind the same signature under a build tag. This module ships
// only the scalar implementation: no example in this pack's retrieval set
// uses cgo or Go assembly for audio, and a hand-written, unverifiable
// intrinsic isn't worth the risk without a way to run the toolchain (see
// DESIGN.md's SIMD note).
package mixer

// clearGroups zeroes buf in groups of 4; buf's length is always already a
// multiple of alloc.WideGroup because accumulators are allocated via
// alloc.Float32.
func clearGroups(buf []float32) {
	for i := 0; i < len(buf); i += 4 {
		buf[i] = 0
		buf[i+1] = 0
		buf[i+2] = 0
		buf[i+3] = 0
	}
}

// packSaturate16 converts one wide group of (left, right) float32 pairs
// into 8 interleaved int16 lanes (l0,r0,l1,r1,l2,r2,l3,r3), truncating
// toward zero and saturating to the int16 range — spec §4.F step 5's
// "convert ... truncate toward zero ... then saturating-pack".
func packSaturate16(left, right [4]float32, out []int16) {
	for i := 0; i < 4; i++ {
		out[i*2] = saturateInt16(int32(left[i]))
		out[i*2+1] = saturateInt16(int32(right[i]))
	}
}

func saturateInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
