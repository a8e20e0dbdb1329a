// Package errs collects the sentinel errors surfaced across the engine's
// public API. Callers compare with errors.Is; nothing here wraps another
// error, matching the plain errors.New style used elsewhere in this module.
package errs

import "errors"

var (
	// Resource acquisition.
	ErrFileNotFound   = errors.New("file not found")
	ErrInvalidSound   = errors.New("invalid sound")
	ErrCantOpenDevice = errors.New("cannot open audio device")
	ErrCantInitAudio  = errors.New("cannot initialize audio backend")

	// WAV decoding.
	ErrFileIsNotWav        = errors.New("file is not a wav file")
	ErrFormatChunkNotFound = errors.New("fmt chunk not found")
	ErrDataChunkNotFound   = errors.New("data chunk not found")
	ErrOnlyMonoOrStereo    = errors.New("only mono or stereo channel layouts are supported")
	ErrUnsupportedFormat   = errors.New("unsupported sample format")

	// Music state machine.
	ErrCannotSwitchMusicWhilePaused    = errors.New("cannot switch music while paused")
	ErrCannotCrossfadeWhileMusicPaused = errors.New("cannot crossfade while music paused")
	ErrCannotFadeOutWhileMusicPaused   = errors.New("cannot fade out while music paused")

	// Parameter range.
	ErrSampleIndexOutOfRange = errors.New("sample index out of range")

	// OGG decoding.
	ErrOggDecodeFailed            = errors.New("ogg decode failed")
	ErrOggUnsupportedChannelCount = errors.New("ogg unsupported channel count")

	// Catch-all for invariant violations the engine detects defensively.
	ErrImplementationError = errors.New("implementation error")
)
