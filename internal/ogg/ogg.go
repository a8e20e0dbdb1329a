// Package ogg implements the external OGG decoder collaborator from spec
// §6: it accepts OGG Vorbis bytes and returns interleaved 16-bit samples
// plus sample_count/channel_count/sample_rate, exactly the tuple the
// engine's source loader de-interleaves identically to the WAV path.
//
// Grounded on the teacher's internal/streaming/music_player.go, which
// streams an OGG file on demand via github.com/gopxl/beep +
// github.com/gopxl/beep/vorbis. This engine's sources are preloaded (spec
// §1 non-goals exclude streamed sources), so the bridge fully drains the
// beep streamer instead of keeping it open.
package ogg

import (
	"bytes"
	"io"

	"github.com/gopxl/beep/vorbis"

	"soundengine/internal/errs"
)

// MaxChannels is the highest channel count the bridge accepts (mono or
// stereo, matching the engine's source limit).
const MaxChannels = 2

// Decoded is the OGG path's counterpart to wav.Decoded: the same format
// metadata, but with the samples still interleaved as int16 (see
// Deinterleave).
type Decoded struct {
	SampleRate   int
	SampleCount  int
	ChannelCount int
	Samples      []int16 // interleaved
}

// Decode drains an entire OGG Vorbis stream into memory. Returns
// errs.ErrOggDecodeFailed on any decode error, and
// errs.ErrOggUnsupportedChannelCount for anything other than mono/stereo.
func Decode(data []byte) (*Decoded, error) {
	streamer, format, err := vorbis.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, errs.ErrOggDecodeFailed
	}
	defer streamer.Close()

	if format.NumChannels < 1 || format.NumChannels > MaxChannels {
		return nil, errs.ErrOggUnsupportedChannelCount
	}

	const chunk = 4096
	buf := make([][2]float64, chunk)

	samples := make([]int16, 0, chunk*2)
	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			left := clampToInt16(buf[i][0])
			samples = append(samples, left)
			if format.NumChannels == 2 {
				samples = append(samples, clampToInt16(buf[i][1]))
			}
		}
		if !ok {
			break
		}
	}

	sampleCount := len(samples) / format.NumChannels

	return &Decoded{
		SampleRate:   int(format.SampleRate),
		SampleCount:  sampleCount,
		ChannelCount: format.NumChannels,
		Samples:      samples,
	}, nil
}

func clampToInt16(f float64) int16 {
	scaled := f * 32767.0
	if scaled > 32767 {
		scaled = 32767
	} else if scaled < -32768 {
		scaled = -32768
	}
	return int16(scaled)
}

// Deinterleave splits an interleaved int16 buffer into per-channel float32
// slices in "16-bit-scaled float" units (matching the WAV decoder's
// output), so the caller can feed both decoders through source.New
// identically, per spec §6's "de-interleaves and zero-pads identically to
// the WAV path".
func Deinterleave(samples []int16, sampleCount, channelCount int) [][]float32 {
	channels := make([][]float32, channelCount)
	for c := range channels {
		channels[c] = make([]float32, sampleCount)
	}
	for i := 0; i < sampleCount; i++ {
		for c := 0; c < channelCount; c++ {
			channels[c][i] = float32(samples[i*channelCount+c])
		}
	}
	return channels
}
