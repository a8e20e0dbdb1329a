package mixer

import (
	"testing"

	"soundengine/internal/instance"
	"soundengine/internal/pool"
	"soundengine/internal/source"
)

func constantMonoSource(t *testing.T, sampleCount int, value float32) *source.Source {
	t.Helper()
	samples := make([]float32, sampleCount)
	for i := range samples {
		samples[i] = value
	}
	src, err := source.New(44100, sampleCount, 1, [][]float32{samples})
	if err != nil {
		t.Fatalf("source.New: %v", err)
	}
	return src
}

func rampMonoSource(t *testing.T, sampleCount int) *source.Source {
	t.Helper()
	samples := make([]float32, sampleCount)
	for i := range samples {
		samples[i] = float32(i)
	}
	src, err := source.New(44100, sampleCount, 1, [][]float32{samples})
	if err != nil {
		t.Fatalf("source.New: %v", err)
	}
	return src
}

func unityParams() Params {
	return Params{GlobalVolume: 1, GlobalPan: 0.5, MusicVolume: 1, SoundVolume: 1}
}

func TestMixUnityConstantSource(t *testing.T) {
	// Samples are pre-scaled to 16-bit magnitude (spec §4.C), not normalized
	// -1..1, so the kernel can truncate straight into int16 with no further
	// scaling.
	const value float32 = 20000
	src := constantMonoSource(t, 44100, value)
	p := pool.New(4)
	idx, inst := p.Acquire()
	inst.Active = true
	inst.Volume = 1
	inst.SetPan(0.5)
	inst.Pitch = 1
	inst.Audio = src
	_ = idx

	k := NewKernel(128)
	stopped := false
	k.Mix(p, 10, unityParams(), func(int32, *instance.Instance) { stopped = true })

	if stopped {
		t.Fatal("instance should not stop mid-source")
	}
	out := k.Output()
	// Centered pan halves gain twice (instance pan and global pan both 0.5).
	want := int16(value * 0.25)
	for i := 0; i < 10; i++ {
		if out[i*2] != want {
			t.Fatalf("frame %d left = %d, want %d", i, out[i*2], want)
		}
		if out[i*2+1] != out[i*2] {
			t.Fatalf("frame %d: mono source should produce equal L/R at centered pan", i)
		}
	}
}

func TestMixStopsAtEndOfNonLoopedSource(t *testing.T) {
	src := constantMonoSource(t, 5, 1.0)
	p := pool.New(4)
	idx, inst := p.Acquire()
	inst.Active = true
	inst.Volume = 1
	inst.SetPan(0.5)
	inst.Pitch = 1
	inst.Looped = false
	inst.Audio = src

	k := NewKernel(128)
	var stoppedIdx int32 = -1
	k.Mix(p, 10, unityParams(), func(i int32, _ *instance.Instance) { stoppedIdx = i })

	if stoppedIdx != idx {
		t.Fatalf("expected stop callback for idx %d, got %d", idx, stoppedIdx)
	}
}

func TestMixLoopsWrapsIndex(t *testing.T) {
	src := constantMonoSource(t, 4, 1.0)
	p := pool.New(4)
	_, inst := p.Acquire()
	inst.Active = true
	inst.Volume = 1
	inst.SetPan(0.5)
	inst.Pitch = 1
	inst.Looped = true
	inst.Audio = src

	k := NewKernel(128)
	k.Mix(p, 10, unityParams(), func(int32, *instance.Instance) {
		t.Fatal("looped instance must not stop")
	})
	if inst.SampleIndex != 2 {
		t.Fatalf("sample index after looping 10 frames over a 4-sample source = %v, want 2", inst.SampleIndex)
	}
}

func TestMixPitchedDoublesConsumption(t *testing.T) {
	src := rampMonoSource(t, 20)
	p := pool.New(4)
	_, inst := p.Acquire()
	inst.Active = true
	inst.Volume = 1
	inst.SetPan(0.5)
	inst.Pitch = 2.0
	inst.Looped = false
	inst.Audio = src

	k := NewKernel(128)
	stopped := false
	k.Mix(p, 5, unityParams(), func(int32, *instance.Instance) { stopped = true })
	if stopped {
		t.Fatal("should not have reached end of source yet")
	}
	if inst.SampleIndex != 10 {
		t.Fatalf("sample index after 5 frames at pitch 2.0 = %v, want 10", inst.SampleIndex)
	}
}

func TestMixPitchedReadsZeroPastEnd(t *testing.T) {
	// A pitched read straddling the final sample of a non-looped source
	// interpolates toward zero, not toward a repeat of the last sample.
	const value float32 = 10000
	src := constantMonoSource(t, 4, value)
	p := pool.New(4)
	_, inst := p.Acquire()
	inst.Active = true
	inst.Volume = 1
	inst.SetPan(0.5)
	inst.Pitch = 3.5
	inst.Looped = false
	inst.Audio = src

	k := NewKernel(128)
	k.Mix(p, 2, unityParams(), func(int32, *instance.Instance) {})

	out := k.Output()
	if want := int16(value * 0.25); out[0] != want {
		t.Fatalf("frame 0 = %d, want %d", out[0], want)
	}
	// Frame 1 reads index 3.5: halfway between sample 3 (10000) and the
	// zero past the end.
	if want := int16(value / 2 * 0.25); out[2] != want {
		t.Fatalf("frame 1 = %d, want %d (half value, blended with silence)", out[2], want)
	}
	if inst.SampleIndex != 7 {
		t.Fatalf("sample index = %v, want 7 (stepped past the end)", inst.SampleIndex)
	}
}

func TestMixReverseLoopedWrapsPastZero(t *testing.T) {
	src := constantMonoSource(t, 8, 1.0)
	p := pool.New(4)
	_, inst := p.Acquire()
	inst.Active = true
	inst.Volume = 1
	inst.SetPan(0.5)
	inst.Pitch = -2.0
	inst.Looped = true
	inst.SampleIndex = 1
	inst.Audio = src

	k := NewKernel(128)
	k.Mix(p, 1, unityParams(), func(int32, *instance.Instance) {
		t.Fatal("looped reverse instance must not stop")
	})
	if inst.SampleIndex != -1 {
		t.Fatalf("sample index after one reverse frame = %v, want -1", inst.SampleIndex)
	}

	// The next pass wraps -1 to sample_count - 1 before reading.
	k.Mix(p, 1, unityParams(), func(int32, *instance.Instance) {
		t.Fatal("looped reverse instance must not stop")
	})
	if inst.SampleIndex != 5 {
		t.Fatalf("sample index after wrap = %v, want 5 (wrapped to 7, then one frame at -2)", inst.SampleIndex)
	}
}

func TestMixReverseNonLoopedStopsAtZero(t *testing.T) {
	src := constantMonoSource(t, 8, 1.0)
	p := pool.New(4)
	idx, inst := p.Acquire()
	inst.Active = true
	inst.Volume = 1
	inst.SetPan(0.5)
	inst.Pitch = -2.0
	inst.Looped = false
	inst.SampleIndex = 1
	inst.Audio = src

	// Requesting more frames than the source can supply: the kernel
	// produces the final partial frame, then the end test stops the
	// instance within the same pass.
	k := NewKernel(128)
	var stoppedIdx int32 = -1
	k.Mix(p, 4, unityParams(), func(i int32, _ *instance.Instance) { stoppedIdx = i })
	if stoppedIdx != idx {
		t.Fatalf("expected stop for idx %d once the read position passed zero, got %d", idx, stoppedIdx)
	}
	if inst.SampleIndex != -1 {
		t.Fatalf("sample index = %v, want -1", inst.SampleIndex)
	}
}

func TestMixSkipsPausedAndInactive(t *testing.T) {
	src := constantMonoSource(t, 100, 1.0)
	p := pool.New(4)
	_, paused := p.Acquire()
	paused.Active = true
	paused.Paused = true
	paused.Volume = 1
	paused.SetPan(0.5)
	paused.Pitch = 1
	paused.Audio = src

	k := NewKernel(128)
	k.Mix(p, 4, unityParams(), func(int32, *instance.Instance) {
		t.Fatal("paused instance must not be stopped by the kernel")
	})
	out := k.Output()
	for _, v := range out {
		if v != 0 {
			t.Fatal("paused instance must not contribute output")
		}
	}
}

func TestMixGlobalPauseSilencesOutput(t *testing.T) {
	src := constantMonoSource(t, 100, 1.0)
	p := pool.New(4)
	_, inst := p.Acquire()
	inst.Active = true
	inst.Volume = 1
	inst.SetPan(0.5)
	inst.Pitch = 1
	inst.Audio = src

	params := unityParams()
	params.GlobalPause = true
	k := NewKernel(128)
	k.Mix(p, 4, params, func(int32, *instance.Instance) {})
	for _, v := range k.Output() {
		if v != 0 {
			t.Fatal("globally paused mix must produce silence")
		}
	}
}
