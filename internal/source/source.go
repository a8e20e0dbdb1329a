// Package source defines the immutable, decoded audio source type shared by
// the WAV decoder, the OGG bridge, and the mixer (spec §3, §4.C).
package source

import "soundengine/internal/alloc"

// MaxChannels is the highest channel count this engine supports (spec §1
// non-goals: no more than two channels).
const MaxChannels = 2

// Source is a read-only decoded audio buffer. Once constructed its fields
// never change; only PlayingCount is mutated, and only by the engine under
// its lock (spec §3 invariant).
type Source struct {
	SampleRate   int
	SampleCount  int
	ChannelCount int

	// channels[c] holds SampleCount live samples, 16-byte aligned and
	// padded to a multiple of alloc.WideGroup with zeroed trailing lanes.
	channels [MaxChannels]*alloc.Buffer

	// PlayingCount is the number of live instances referencing this
	// source. Mutated only by the engine under the engine lock.
	PlayingCount int
}

// New constructs a Source from already-converted, already-deinterleaved
// per-channel sample slices (one slice per channel, channelCount of them).
// Each channel slice is copied into a freshly aligned buffer; samples beyond
// sampleCount within the final wide group are zeroed.
func New(sampleRate, sampleCount, channelCount int, channels [][]float32) (*Source, error) {
	s := &Source{
		SampleRate:   sampleRate,
		SampleCount:  sampleCount,
		ChannelCount: channelCount,
	}
	for c := 0; c < channelCount; c++ {
		buf := alloc.Float32(sampleCount)
		copy(buf.Data(), channels[c])
		s.channels[c] = buf
	}
	return s, nil
}

// Channel returns the aligned, padded sample buffer for channel index c.
// Valid indices are [0, ChannelCount).
func (s *Source) Channel(c int) []float32 {
	return s.channels[c].Data()
}

// IsMono reports whether this source has exactly one channel.
func (s *Source) IsMono() bool { return s.ChannelCount == 1 }

// Retain increments the live-instance reference count. Called by the
// playing-instance controller when an instance is inserted.
func (s *Source) Retain() { s.PlayingCount++ }

// Release decrements the live-instance reference count. Called when an
// instance referencing this source ends or is stopped. Never goes below
// zero; a Release past zero indicates a controller bug (spec §3 invariant).
func (s *Source) Release() {
	if s.PlayingCount > 0 {
		s.PlayingCount--
	}
}
