// Package instance defines the mutable sound-instance type from spec §3.
// Instances are pool-allocated and addressed by id through idmap; every
// field here is read or written only under the engine lock.
//
// Grounded on the teacher's internal/game/player.go field shape (plain
// mutable fields — volume/pan/pitch/position here — owned and
// synchronized by the aggregate that holds the lock, not by the instance
// itself).
package instance

import "soundengine/internal/source"

// Instance is one playing occurrence of a source.
type Instance struct {
	ID uint64 // 0 = unused slot; assigned by the engine's monotonic generator

	IsMusic bool
	Active  bool
	Paused  bool
	Looped  bool

	Volume   float64
	PanLeft  float64 // derived: 1 - pan
	PanRight float64 // derived: pan

	Pitch float64 // 1.0 = unity, negative = reverse, 0 = silent

	// SampleIndex is the source read position in source-samples; it may be
	// fractional under pitch != 1 and negative under reverse playback.
	SampleIndex float64

	Audio *source.Source // does not own it
}

// Reset zeroes every field back to the unused-slot state. Called by the
// pool when a slot returns to the free list.
func (i *Instance) Reset() { *i = Instance{} }

// SetPan derives PanLeft/PanRight from a user pan value in [0, 1] using the
// linear pan law spec §9 mandates (not equal-power): pan_left = 1-p,
// pan_right = p.
func (i *Instance) SetPan(p float64) {
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	i.PanLeft = 1 - p
	i.PanRight = p
}

// Pan returns the user-facing pan value derived from PanRight (the
// canonical stored form is PanLeft/PanRight; Pan reconstructs the
// original 0..1 input for getters).
func (i *Instance) Pan() float64 { return i.PanRight }
