package engine

import "testing"

func constantWAV(sampleRate, sampleCount int, value int16) []byte {
	dataBytes := make([]byte, sampleCount*2)
	for i := 0; i < sampleCount; i++ {
		dataBytes[i*2] = byte(uint16(value))
		dataBytes[i*2+1] = byte(uint16(value) >> 8)
	}
	return buildWAV(sampleRate, 1, 16, dataBytes)
}

// buildWAV assembles a minimal RIFF/WAVE byte stream with a fmt and data
// chunk, mirroring what the wav package's decoder expects.
func buildWAV(sampleRate, channels, bits int, data []byte) []byte {
	le16 := func(v int) []byte { return []byte{byte(v), byte(v >> 8)} }
	le32 := func(v int) []byte {
		return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	}
	byteRate := sampleRate * channels * bits / 8
	blockAlign := channels * bits / 8

	fmtChunk := append([]byte{}, le16(1)...)          // PCM
	fmtChunk = append(fmtChunk, le16(channels)...)
	fmtChunk = append(fmtChunk, le32(sampleRate)...)
	fmtChunk = append(fmtChunk, le32(byteRate)...)
	fmtChunk = append(fmtChunk, le16(blockAlign)...)
	fmtChunk = append(fmtChunk, le16(bits)...)

	var buf []byte
	buf = append(buf, []byte("RIFF")...)
	buf = append(buf, le32(0)...) // size, unchecked by the decoder
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = append(buf, le32(len(fmtChunk))...)
	buf = append(buf, fmtChunk...)
	buf = append(buf, []byte("data")...)
	buf = append(buf, le32(len(data))...)
	buf = append(buf, data...)
	return buf
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New()
	if err := e.Init(Config{SampleRate: 44100, PoolPageSize: 4, IdMapInitialCapacity: 16, MixBlockFrames: 256}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return e
}

// TestScenarioA mirrors spec §8 scenario A: a 1-second mono constant-value
// source played at default params runs to completion and fires exactly one
// finish callback.
func TestScenarioA(t *testing.T) {
	e := newTestEngine(t)
	src, err := e.LoadWAV(constantWAV(44100, 44100, 10000))
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}

	finishes := 0
	e.OnSoundFinish(func(uint64) { finishes++ })

	id, err := e.PlaySound(src, DefaultPlayParams())
	if err != nil {
		t.Fatalf("PlaySound: %v", err)
	}
	if !e.IsPlaying(id) {
		t.Fatal("expected instance to be playing immediately after PlaySound")
	}

	// Default pan (0.5) combined with the default centered global pan (0.5)
	// applies a 0.25 combined gain (spec §4.F's literal vA/vB formula, the
	// linear pan law's well-known center dip).
	out := e.MixInto(44100)
	want := int16(10000 * 0.25)
	for i := 0; i < 44100; i++ {
		if out[i*2] != want {
			t.Fatalf("frame %d left = %d, want %d", i, out[i*2], want)
		}
	}
	if finishes != 0 {
		t.Fatalf("finish callbacks after exactly consuming the source = %d, want 0 (fires on the next mix pass)", finishes)
	}

	// The end test only runs when the mixer is asked for more frames; one
	// more pass observes sample_index == sample_count and stops it.
	e.MixInto(1)
	if finishes != 1 {
		t.Fatalf("finish callbacks = %d, want 1", finishes)
	}
	if e.IsPlaying(id) {
		t.Fatal("instance should have stopped after consuming its whole source")
	}
}

// TestScenarioB mirrors spec §8 scenario B: two simultaneous sources sum in
// the accumulator.
func TestScenarioB(t *testing.T) {
	e := newTestEngine(t)
	s1, _ := e.LoadWAV(constantWAV(44100, 22050, 8000))
	s2, _ := e.LoadWAV(constantWAV(44100, 22050, 8000))

	if _, err := e.PlaySound(s1, DefaultPlayParams()); err != nil {
		t.Fatal(err)
	}
	if _, err := e.PlaySound(s2, DefaultPlayParams()); err != nil {
		t.Fatal(err)
	}

	out := e.MixInto(1)
	want := int16(2 * 8000 * 0.25) // two sources, each at the default 0.25 combined pan gain
	if out[0] != want || out[1] != want {
		t.Fatalf("first frame = (%d, %d), want (%d, %d)", out[0], out[1], want, want)
	}
}

// TestScenarioC mirrors spec §8 scenario C: a looped source run for 2.5x its
// own length leaves sample_index at half the source length.
func TestScenarioC(t *testing.T) {
	e := newTestEngine(t)
	src, _ := e.LoadWAV(constantWAV(44100, 44100, 1000))

	params := DefaultPlayParams()
	params.Looped = true
	id, err := e.PlaySound(src, params)
	if err != nil {
		t.Fatal(err)
	}

	e.MixInto(2*44100 + 44100/2)
	if !e.IsPlaying(id) {
		t.Fatal("looped instance must still be playing")
	}
	gotTime := e.GetTime(id)
	if gotTime < 0.49 || gotTime > 0.51 {
		t.Fatalf("time after 2.5x loop = %v, want ~0.5s", gotTime)
	}
}

// TestScenarioE mirrors spec §8 scenario E: pitch=2.0 ends after ceil(N/2)
// frames.
func TestScenarioE(t *testing.T) {
	const n = 101
	e := newTestEngine(t)
	src, _ := e.LoadWAV(constantWAV(44100, n, 5000))

	params := DefaultPlayParams()
	params.Pitch = 2.0
	id, err := e.PlaySound(src, params)
	if err != nil {
		t.Fatal(err)
	}

	finished := false
	e.OnSoundFinish(func(uint64) { finished = true })

	want := (n + 1) / 2 // ceil(n/2)
	e.MixInto(want - 1)
	if finished {
		t.Fatal("should not have finished before ceil(N/2) frames")
	}

	// The final frame straddles the end of the source: the resampler reads
	// zero for the missing sample and sample_index steps past N.
	e.MixInto(1)
	if finished {
		t.Fatal("finish fires on the pass after the final frame, not during it")
	}

	e.MixInto(1)
	if !finished {
		t.Fatal("expected finish callback after producing ceil(N/2) frames")
	}
	if e.IsPlaying(id) {
		t.Fatal("instance should be gone after the finish callback")
	}
}

// TestScenarioF mirrors spec §8 scenario F: a deferred free only releases
// after the last instance stops and the next update tick.
func TestScenarioF(t *testing.T) {
	e := newTestEngine(t)
	src, _ := e.LoadWAV(constantWAV(44100, 4, 1))

	params := DefaultPlayParams()
	params.Looped = true
	id, err := e.PlaySound(src, params)
	if err != nil {
		t.Fatal(err)
	}
	if src.PlayingCount != 1 {
		t.Fatalf("playing_count = %d, want 1", src.PlayingCount)
	}

	e.FreeAudioSource(src)
	if len(e.deferredFree) != 1 {
		t.Fatal("expected the free to be deferred while the instance is still playing")
	}

	e.StopSound(id)
	if src.PlayingCount != 0 {
		t.Fatalf("playing_count after stop = %d, want 0", src.PlayingCount)
	}

	e.Update(0)
	if len(e.deferredFree) != 0 {
		t.Fatal("expected the deferred free to be swept on the next update tick")
	}
}

func TestPanBoundaries(t *testing.T) {
	e := newTestEngine(t)
	src, _ := e.LoadWAV(constantWAV(44100, 10, 10000))

	params := DefaultPlayParams()
	params.Pan = 0
	id, _ := e.PlaySound(src, params)
	out := e.MixInto(1)
	if out[1] != 0 {
		t.Fatalf("pan=0 right channel = %d, want 0", out[1])
	}
	if out[0] == 0 {
		t.Fatal("pan=0 left channel should not be silent")
	}
	e.StopSound(id)

	params.Pan = 1
	id2, _ := e.PlaySound(src, params)
	out = e.MixInto(1)
	if out[0] != 0 {
		t.Fatalf("pan=1 left channel = %d, want 0", out[0])
	}
	e.StopSound(id2)
}

func TestMusicSwitchToSequence(t *testing.T) {
	e := newTestEngine(t)
	trackA, _ := e.LoadWAV(constantWAV(44100, 44100*2, 20000))
	trackB, _ := e.LoadWAV(constantWAV(44100, 44100*2, 20000))

	if _, err := e.MusicPlayFadeIn(trackA, DefaultPlayParams(), 1.0); err != nil {
		t.Fatalf("MusicPlayFadeIn: %v", err)
	}
	for i := 0; i < 5; i++ {
		e.Update(0.1)
		e.MixInto(4410)
	}

	if _, err := e.MusicSwitchTo(trackB, DefaultPlayParams(), 0.2, 0.3); err != nil {
		t.Fatalf("MusicSwitchTo: %v", err)
	}

	for i := 0; i < 6; i++ {
		e.Update(0.1)
		e.MixInto(4410)
	}
}

func TestMusicNaturalEndClearsState(t *testing.T) {
	e := newTestEngine(t)
	short, _ := e.LoadWAV(constantWAV(44100, 8, 1000))

	musicFinishes := 0
	e.OnMusicFinish(func(uint64) { musicFinishes++ })

	id, err := e.MusicPlay(short, DefaultPlayParams())
	if err != nil {
		t.Fatalf("MusicPlay: %v", err)
	}

	// Run the track to its end; the mixer stops it from the device thread's
	// pass and the engine must not keep addressing the released slot.
	e.MixInto(8)
	e.MixInto(1)
	if musicFinishes != 1 {
		t.Fatalf("music finish callbacks = %d, want 1", musicFinishes)
	}
	if e.IsPlaying(id) {
		t.Fatal("music instance should be gone after its source ran out")
	}

	e.Update(0.1)
	if got := e.MusicGetTime(); got != 0 {
		t.Fatalf("MusicGetTime after natural end = %v, want 0", got)
	}

	// The music layer accepts a fresh track afterwards.
	next, _ := e.LoadWAV(constantWAV(44100, 44100, 1000))
	if _, err := e.MusicPlay(next, DefaultPlayParams()); err != nil {
		t.Fatalf("MusicPlay after natural end: %v", err)
	}
}

func TestSetTimePastEndIsError(t *testing.T) {
	e := newTestEngine(t)
	src, _ := e.LoadWAV(constantWAV(44100, 100, 100))
	id, _ := e.PlaySound(src, DefaultPlayParams())

	if err := e.SetTime(id, 100.0/44100*2); err == nil {
		t.Fatal("expected error seeking past end of source")
	}
}
