// Resampler: linear-interpolated pitched reads and the unity-pitch simple
// path (spec §4.G). Both paths write into the mixer's float accumulators at
// a given frame offset, scaled by the per-instance stereo gains.
//
// Grounded on the teacher's internal/streaming/audio.go GenerateFrame mixing
// loop (per-instance position walk, scale-and-accumulate), generalized from
// integer positions to the fractional, pitched reads spec §4.G requires.
package mixer

import (
	"math"

	"soundengine/internal/source"
)

// sampleAt returns source channel c's sample at integer index n, applying
// spec §4.G's s(n) definition: wrapped modulo sampleCount when looped,
// zero outside [0, sampleCount) when not.
func sampleAt(ch []float32, sampleCount int, n int, looped bool) float32 {
	if looped {
		n = n % sampleCount
		if n < 0 {
			n += sampleCount
		}
		return ch[n]
	}
	if n < 0 || n >= sampleCount {
		return 0
	}
	return ch[n]
}

// mixSimple handles the pitch == 1.0 path: no interpolation, just a
// straight per-frame copy scaled by (vA, vB). Mono sources write the same
// sample to both accumulators; stereo sources read each channel
// independently.
func mixSimple(accL, accR []float32, src *source.Source, startIndex int, frames int, vA, vB float64, looped bool) {
	sampleCount := src.SampleCount
	if src.IsMono() {
		ch := src.Channel(0)
		for k := 0; k < frames; k++ {
			s := float64(sampleAt(ch, sampleCount, startIndex+k, looped))
			accL[k] += float32(s * vA)
			accR[k] += float32(s * vB)
		}
		return
	}
	left := src.Channel(0)
	right := src.Channel(1)
	for k := 0; k < frames; k++ {
		l := float64(sampleAt(left, sampleCount, startIndex+k, looped))
		r := float64(sampleAt(right, sampleCount, startIndex+k, looped))
		accL[k] += float32(l * vA)
		accR[k] += float32(r * vB)
	}
}

// mixPitched handles the pitch != 1.0 path: for each of the requested
// frames, compute a fractional source index and linearly interpolate
// between the floor and ceil samples, per spec §4.G's formula.
func mixPitched(accL, accR []float32, src *source.Source, startIndex float64, pitch float64, frames int, vA, vB float64, looped bool) {
	sampleCount := src.SampleCount

	interp := func(ch []float32, idx float64) float32 {
		i := int(math.Floor(idx))
		f := idx - math.Floor(idx)
		s0 := sampleAt(ch, sampleCount, i, looped)
		s1 := sampleAt(ch, sampleCount, i+1, looped)
		return float32((1-f)*float64(s0) + f*float64(s1))
	}

	if src.IsMono() {
		ch := src.Channel(0)
		for k := 0; k < frames; k++ {
			idx := startIndex + float64(k)*pitch
			s := float64(interp(ch, idx))
			accL[k] += float32(s * vA)
			accR[k] += float32(s * vB)
		}
		return
	}
	left := src.Channel(0)
	right := src.Channel(1)
	for k := 0; k < frames; k++ {
		idx := startIndex + float64(k)*pitch
		l := float64(interp(left, idx))
		r := float64(interp(right, idx))
		accL[k] += float32(l * vA)
		accR[k] += float32(r * vB)
	}
}
