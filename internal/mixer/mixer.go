// Package mixer implements the mixer kernel (spec §4.F): per-instance
// sample production into float accumulators, wide-group saturating
// conversion to interleaved int16, and the pitched/simple resampler
// dispatch (spec §4.G, in resampler.go).
//
// Grounded on the teacher's internal/streaming/audio.go AudioMixer.
// GenerateFrame (pre-allocated mix buffer, walk-and-accumulate, convert to
// bytes), generalized from fixed int16 sources and a flat volume scalar
// into float accumulators, stereo pan gains, and pitch-aware resampling.
package mixer

import (
	"math"

	"soundengine/internal/alloc"
	"soundengine/internal/instance"
	"soundengine/internal/pool"
)

// Params carries the engine-level gain/pause state the kernel reads on
// every Mix call (spec §4.F step 4's per-frame gain formula).
type Params struct {
	GlobalVolume float64
	GlobalPan    float64 // 0..1
	GlobalPause  bool
	MusicVolume  float64
	SoundVolume  float64
	ShuttingDown bool
}

// StopFunc is invoked by the kernel whenever an instance must stop — either
// defensively (missing audio, inactive, engine shutting down) or because it
// reached the end of a non-looped source. It is the playing-instance
// controller's Stop operation (spec §4.H); the kernel itself never mutates
// the pool, id map, or source ref-counts directly.
type StopFunc func(idx int32, inst *instance.Instance)

// Kernel owns the float accumulators and the int16 output buffer. Buffers
// grow to fit the largest block requested so far and are never shrunk,
// matching the teacher's pre-allocate-once philosophy.
type Kernel struct {
	accL, accR *alloc.Buffer
	output     []int16
	capacity   int
	frames     int // frame count of the most recent Mix call
}

// NewKernel creates a kernel pre-sized for initialBlockFrames output
// frames per Mix call.
func NewKernel(initialBlockFrames int) *Kernel {
	k := &Kernel{}
	k.ensureCapacity(initialBlockFrames)
	return k
}

func (k *Kernel) ensureCapacity(frames int) {
	if frames <= k.capacity {
		return
	}
	k.accL = alloc.Float32(frames)
	k.accR = alloc.Float32(frames)
	k.output = make([]int16, frames*2)
	k.capacity = frames
}

// Output returns the interleaved int16 samples produced by the most recent
// Mix call (length frames*2).
func (k *Kernel) Output() []int16 { return k.output[:k.frames*2] }

// Mix produces `frames` output frames into the kernel's accumulators and
// output buffer, per spec §4.F. Callers must already hold the engine lock.
func (k *Kernel) Mix(p *pool.Pool, frames int, params Params, stop StopFunc) {
	k.ensureCapacity(frames)
	k.frames = frames

	// Clear the first groupAlign(frames) samples in wide groups (the backing
	// buffer is padded to a multiple of 4 and at least that long, since
	// capacity only grows); then take the exact [0,frames) view the mix loop
	// uses.
	clearGroups(k.accL.Data()[:groupAlign(frames)])
	clearGroups(k.accR.Data()[:groupAlign(frames)])
	accL := k.accL.Data()[:frames]
	accR := k.accR.Data()[:frames]

	if !params.GlobalPause {
		gpan0 := 1 - params.GlobalPan
		gpan1 := params.GlobalPan

		p.Walk(func(idx int32, inst *instance.Instance) {
			if inst.Audio == nil || !inst.Active || params.ShuttingDown {
				stop(idx, inst)
				return
			}
			if inst.Paused || inst.Pitch == 0 {
				return
			}

			category := params.SoundVolume
			if inst.IsMusic {
				category = params.MusicVolume
			}
			vA := inst.Volume * inst.PanLeft * gpan0 * params.GlobalVolume * category
			vB := inst.Volume * inst.PanRight * gpan1 * params.GlobalVolume * category

			mixInstance(inst, accL, accR, frames, vA, vB, idx, stop)
		})
	}

	convertToInt16(accL, accR, k.output[:frames*2])
}

// mixInstance runs one instance's mix loop for up to `frames` output
// frames, per spec §4.F step 4's sub-steps a–e.
func mixInstance(inst *instance.Instance, accL, accR []float32, frames int, vA, vB float64, idx int32, stop StopFunc) {
	sampleCount := float64(inst.Audio.SampleCount)
	writeOffset := 0
	remaining := frames

	for remaining > 0 {
		// a. end test, before mixing.
		if inst.Pitch >= 0 && inst.SampleIndex >= sampleCount {
			if !inst.Looped {
				stop(idx, inst)
				return
			}
			inst.SampleIndex = wrapModulo(inst.SampleIndex, sampleCount)
		} else if inst.Pitch < 0 && inst.SampleIndex <= 0 {
			if !inst.Looped {
				stop(idx, inst)
				return
			}
			inst.SampleIndex = wrapModulo(inst.SampleIndex, sampleCount)
		}

		// b. frames writable this iteration. The clamp rounds up so a
		// partial final step still produces one frame; the resampler reads
		// zero past the end of a non-looped source, and the advance in step
		// e then pushes sample_index over the end so step a stops the
		// instance on the next iteration or mix pass.
		framesWritable := remaining
		if !inst.Looped || inst.Pitch == 1.0 {
			var avail int
			if inst.Pitch > 0 {
				avail = int(math.Ceil((sampleCount - inst.SampleIndex) / inst.Pitch))
			} else {
				avail = int(math.Ceil(inst.SampleIndex / -inst.Pitch))
			}
			if avail < framesWritable {
				framesWritable = avail
			}
		}

		// c.
		if framesWritable <= 0 {
			break
		}

		// d. resample into the accumulators at the current write offset.
		destL := accL[writeOffset : writeOffset+framesWritable]
		destR := accR[writeOffset : writeOffset+framesWritable]
		if inst.Pitch == 1.0 {
			mixSimple(destL, destR, inst.Audio, int(inst.SampleIndex), framesWritable, vA, vB, inst.Looped)
		} else {
			mixPitched(destL, destR, inst.Audio, inst.SampleIndex, inst.Pitch, framesWritable, vA, vB, inst.Looped)
		}

		// e. advance.
		inst.SampleIndex += float64(framesWritable) * inst.Pitch
		writeOffset += framesWritable
		remaining -= framesWritable
	}
}

// wrapModulo wraps v into [0, m), per spec §4.F's "wrap sample_index modulo
// sample_count (positive direction subtracts, reverse direction adds)".
func wrapModulo(v, m float64) float64 {
	r := math.Mod(v, m)
	if r < 0 {
		r += m
	}
	return r
}

func groupAlign(n int) int {
	if n%4 == 0 {
		return n
	}
	return n + (4 - n%4)
}

// convertToInt16 performs spec §4.F step 5: per wide group, truncate each
// float accumulator toward zero and saturating-pack into interleaved int16
// (l0,r0,l1,r1,...).
func convertToInt16(accL, accR []float32, out []int16) {
	frames := len(accL)
	i := 0
	for ; i+4 <= frames; i += 4 {
		var l, r [4]float32
		copy(l[:], accL[i:i+4])
		copy(r[:], accR[i:i+4])
		packSaturate16(l, r, out[i*2:i*2+8])
	}
	for ; i < frames; i++ {
		out[i*2] = saturateInt16(int32(accL[i]))
		out[i*2+1] = saturateInt16(int32(accR[i]))
	}
}
