package ogg

import (
	"testing"

	"soundengine/internal/errs"
)

func TestDecodeRejectsGarbageInput(t *testing.T) {
	_, err := Decode([]byte("not an ogg file"))
	if err != errs.ErrOggDecodeFailed {
		t.Fatalf("err = %v, want ErrOggDecodeFailed", err)
	}
}

func TestDeinterleaveStereo(t *testing.T) {
	samples := []int16{1, 2, 3, 4, 5, 6}
	channels := Deinterleave(samples, 3, 2)
	if len(channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(channels))
	}
	wantLeft := []float32{1, 3, 5}
	wantRight := []float32{2, 4, 6}
	for i := range wantLeft {
		if channels[0][i] != wantLeft[i] {
			t.Fatalf("left[%d] = %v, want %v", i, channels[0][i], wantLeft[i])
		}
		if channels[1][i] != wantRight[i] {
			t.Fatalf("right[%d] = %v, want %v", i, channels[1][i], wantRight[i])
		}
	}
}

func TestDeinterleaveMono(t *testing.T) {
	samples := []int16{10, 20, 30}
	channels := Deinterleave(samples, 3, 1)
	if len(channels) != 1 {
		t.Fatalf("got %d channels, want 1", len(channels))
	}
	for i, want := range []float32{10, 20, 30} {
		if channels[0][i] != want {
			t.Fatalf("channel[0][%d] = %v, want %v", i, channels[0][i], want)
		}
	}
}

func TestClampToInt16(t *testing.T) {
	cases := []struct {
		in   float64
		want int16
	}{
		{0, 0},
		{1.0, 32767},
		{2.0, 32767},
		{-1.0, -32768},
		{-2.0, -32768},
	}
	for _, c := range cases {
		if got := clampToInt16(c.in); got != c.want {
			t.Fatalf("clampToInt16(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
