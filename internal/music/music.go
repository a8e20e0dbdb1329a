// Package music implements the music state machine from spec §4.I: a
// tagged variant of discrete states advanced by a per-tick Advance(dt),
// driving fade-in, fade-out, switch-with-gap, and crossfade.
//
// Grounded on the teacher's internal/game/animation.go AttackPhase
// (int-const tagged enum for a multi-stage timed transition) and
// internal/game/player.go's StunTimer (a dt-decremented countdown field
// that flips state on reaching its target), combined per spec §9's
// "model as an explicit tagged variant with an advance(dt) method".
package music

import (
	"soundengine/internal/errs"
	"soundengine/internal/instance"
)

// State is the music layer's current discrete state (spec §4.I table).
type State int

const (
	StateNone State = iota
	StatePlaying
	StateFadeOut
	StateFadeIn
	StateSwitchTo0
	StateSwitchTo1
	StateCrossfade
	StatePaused
)

// Machine holds the music layer's state-machine scalars. It does not own
// the music_playing/music_next instances directly by pointer ownership in
// the lifecycle sense (the engine's pool owns them); it only reads and
// writes their Volume field as it advances.
type Machine struct {
	state State

	t               float64 // elapsed time in current state
	fade            float64 // primary fade length
	secondaryFade   float64 // used by SwitchTo0 -> SwitchTo1
	fadeStartVolume float64 // instance volume captured at transition time

	// savedState is the state tag saved on entering StatePaused, so Resume
	// can restore it without touching any scalar timer (spec §4.I).
	savedState State

	musicVolume float64 // read at fade completion, per Open Question #2
}

// State returns the current discrete state.
func (m *Machine) State() State { return m.state }

// SetMusicVolume updates the target volume used at fade completion and as
// the FadeIn/SwitchTo1/Crossfade ramp target.
func (m *Machine) SetMusicVolume(v float64) { m.musicVolume = v }

func smoothstep(x float64) float64 {
	if x < 0 {
		x = 0
	} else if x > 1 {
		x = 1
	}
	return x * x * (3 - 2*x)
}

// rampProgress returns the smoothstep progress of a fade of length `fade`
// after elapsed time t. A zero-or-negative fade length means "complete
// immediately" (spec §4.I: "zero-duration fades transition immediately"),
// avoiding a 0/0 division.
func rampProgress(t, fade float64) float64 {
	if fade <= 0 {
		return 1
	}
	return smoothstep(t / fade)
}

func rampDone(t, fade float64) bool {
	return fade <= 0 || t >= fade
}

// Play transitions directly to Playing at full music volume — the
// "start from nothing" entry point, used when there is no current track.
func (m *Machine) Play(playing *instance.Instance) {
	m.state = StatePlaying
	m.t = 0
	playing.Volume = m.musicVolume
}

// PlayFadeIn starts playback of `playing` ramping up from 0 over fadeIn
// seconds.
func (m *Machine) PlayFadeIn(playing *instance.Instance, fadeIn float64) {
	m.beginFade(StateFadeIn, fadeIn, 0, playing)
}

// Stop transitions toward silence: immediate (fadeOut == 0) or via
// StateFadeOut.
func (m *Machine) Stop(playing *instance.Instance, fadeOut float64) error {
	if m.state == StatePaused {
		return errs.ErrCannotFadeOutWhileMusicPaused
	}
	m.beginFade(StateFadeOut, fadeOut, playing.Volume, playing)
	return nil
}

// SwitchTo begins a switch-with-gap: fade the current track out, then (at
// the secondary fade length) fade the next track in. next starts paused
// (per the engine's insertion convention) and is unpaused once the
// SwitchTo0 -> SwitchTo1 transition fires.
func (m *Machine) SwitchTo(playing, next *instance.Instance, fadeOut, fadeIn float64) error {
	if m.state == StatePaused {
		return errs.ErrCannotSwitchMusicWhilePaused
	}
	m.state = StateSwitchTo0
	m.t = 0
	m.fade = fadeOut
	m.secondaryFade = fadeIn
	m.fadeStartVolume = playing.Volume
	if fadeOut <= 0 {
		m.advanceSwitchTo0(0, playing, next)
	}
	return nil
}

// Crossfade begins an overlapping crossfade between playing and next.
func (m *Machine) Crossfade(playing, next *instance.Instance, fade float64) error {
	if m.state == StatePaused {
		return errs.ErrCannotCrossfadeWhileMusicPaused
	}
	m.state = StateCrossfade
	m.t = 0
	m.fade = fade
	m.fadeStartVolume = playing.Volume
	if fade <= 0 {
		m.Advance(0, playing, next)
	}
	return nil
}

func (m *Machine) beginFade(state State, fade, startVolume float64, playing *instance.Instance) {
	m.state = state
	m.t = 0
	m.fade = fade
	m.fadeStartVolume = startVolume
	if fade <= 0 {
		m.Advance(0, playing, nil)
	}
}

// Pause saves the current state tag and transitions to StatePaused. Scalar
// fields (t, fade, fadeStartVolume) are left untouched so Resume can
// continue exactly where the machine left off.
func (m *Machine) Pause() {
	if m.state == StatePaused {
		return
	}
	m.savedState = m.state
	m.state = StatePaused
}

// Resume restores the state saved by Pause.
func (m *Machine) Resume() {
	if m.state != StatePaused {
		return
	}
	m.state = m.savedState
}

// Advance runs one tick of the state machine, given the current music
// instances. playing must be non-nil outside StateNone/StatePaused; next
// is read only by the switch/crossfade states. Instances the machine is
// done with are deactivated via their Active flag; the mixer removes them
// on its next pass.
func (m *Machine) Advance(dt float64, playing, next *instance.Instance) {
	switch m.state {
	case StateNone, StatePlaying, StatePaused:
		return
	case StateFadeIn:
		m.t += dt
		playing.Volume = m.musicVolume * rampProgress(m.t, m.fade)
		if rampDone(m.t, m.fade) {
			m.state = StatePlaying
			playing.Volume = m.musicVolume
		}
	case StateFadeOut:
		m.t += dt
		playing.Volume = m.fadeStartVolume * (1 - rampProgress(m.t, m.fade))
		if rampDone(m.t, m.fade) {
			m.state = StateNone
			playing.Active = false
		}
	case StateSwitchTo0:
		m.advanceSwitchTo0(dt, playing, next)
	case StateSwitchTo1:
		m.t += dt
		next.Volume = m.musicVolume * rampProgress(m.t, m.secondaryFade)
		if rampDone(m.t, m.secondaryFade) {
			m.state = StatePlaying
		}
	case StateCrossfade:
		m.t += dt
		s := rampProgress(m.t, m.fade)
		playing.Volume = m.fadeStartVolume * (1 - s)
		next.Volume = m.musicVolume * s
		if rampDone(m.t, m.fade) {
			m.state = StatePlaying
			playing.Active = false
		}
	}
}

func (m *Machine) advanceSwitchTo0(dt float64, playing, next *instance.Instance) {
	m.t += dt
	playing.Volume = m.fadeStartVolume * (1 - rampProgress(m.t, m.fade))
	if !rampDone(m.t, m.fade) {
		return
	}
	m.state = StateSwitchTo1
	m.t = 0
	m.fade = m.secondaryFade
	playing.Active = false
	if next != nil {
		next.Paused = false
	}
	// A zero-length secondary fade should also settle immediately, without
	// waiting for the caller's next tick (spec §4.I: "zero-duration fades
	// transition immediately").
	if m.fade <= 0 && next != nil {
		m.Advance(0, playing, next)
	}
}

// Terminal reports whether the current tick's state transition reached
// StatePlaying or StateNone, i.e. no further Advance calls are needed this
// cycle. Provided for callers that want to know when a fade/switch/
// crossfade has fully settled.
func (m *Machine) Terminal() bool {
	return m.state == StatePlaying || m.state == StateNone
}
