// Package engine assembles the aggregate described in spec §3's "Engine
// state": the id map, instance pool, mixer kernel, music state machine, and
// deferred-free queue, all guarded by one mutex (spec §5). It exposes the
// engine API surface from spec §6 as exported methods.
//
// Grounded on the teacher's internal/game/engine.go Engine type (a single
// mutex-guarded aggregate exposing Update/Get*/Set* methods to callers on
// another goroutine), generalized from game-world state to audio-engine
// state.
package engine

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"soundengine/internal/errs"
	"soundengine/internal/idmap"
	"soundengine/internal/instance"
	"soundengine/internal/metrics"
	"soundengine/internal/mixer"
	"soundengine/internal/music"
	"soundengine/internal/ogg"
	"soundengine/internal/pool"
	"soundengine/internal/source"
	"soundengine/internal/wav"
)

// FinishCallback is invoked when a sound or music instance stops, from
// whichever thread drove the stop (spec §4.H: "callbacks must be tolerant
// of execution on either thread").
type FinishCallback func(id uint64)

// PlayParams bundles the per-instance parameters play_sound/music_play
// accept (spec §4.H play operation).
type PlayParams struct {
	Volume    float64
	Pan       float64 // 0..1
	Pitch     float64 // 1.0 = unity
	Looped    bool
	Paused    bool
	StartTime float64 // seconds; converted to sample_index via source.SampleRate
}

// DefaultPlayParams returns unity volume, centered pan, unity pitch,
// unlooped, unpaused, no start offset.
func DefaultPlayParams() PlayParams {
	return PlayParams{Volume: 1, Pan: 0.5, Pitch: 1}
}

// Config is the subset of config.EngineConfig the engine aggregate reads
// directly at Init time.
type Config struct {
	SampleRate           int
	PoolPageSize         int
	IdMapInitialCapacity int
	MixBlockFrames       int
}

// Engine is the singleton aggregate from spec §3. All exported methods
// except the LoadWAV/LoadOGG/LoadFile decoders acquire mu for their entire
// duration, per spec §5.
type Engine struct {
	mu sync.Mutex

	cfg     Config
	running bool

	pool  *pool.Pool
	ids   *idmap.Map
	mixer *mixer.Kernel
	music music.Machine

	nextID uint64 // monotonic generator, starts at 1 (spec §3)

	globalVolume float64
	globalPan    float64 // 0..1
	globalPause  bool

	musicVolume float64
	musicPitch  float64
	soundVolume float64

	// Music instances are addressed by id, not slot index, so a track that
	// ends naturally on the device thread (slot released and possibly
	// reused) simply stops resolving instead of aliasing a new instance.
	musicPlayingID uint64
	musicNextID    uint64

	deferredFree []*source.Source

	onSoundFinish FinishCallback
	onMusicFinish FinishCallback
}

// New constructs an uninitialized Engine. Call Init before any other
// method; calls made before Init are no-ops per spec §7 ("subsequent
// engine calls on an uninitialized engine are defined as no-ops").
func New() *Engine {
	return &Engine{}
}

// Init brings the engine up at the given sample rate (spec §6:
// "init(frequency_hz, user_alloc_ctx) -> error code"; this engine has no
// user allocation context to thread through, Go's GC replaces it).
func (e *Engine) Init(cfg Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}
	if cfg.SampleRate <= 0 {
		return errs.ErrCantInitAudio
	}
	if cfg.PoolPageSize <= 0 {
		cfg.PoolPageSize = pool.DefaultPageSize
	}
	if cfg.IdMapInitialCapacity <= 0 {
		cfg.IdMapInitialCapacity = 256
	}
	if cfg.MixBlockFrames <= 0 {
		cfg.MixBlockFrames = 1024
	}

	e.cfg = cfg
	e.pool = pool.New(cfg.PoolPageSize)
	e.ids = idmap.New(cfg.IdMapInitialCapacity)
	e.mixer = mixer.NewKernel(cfg.MixBlockFrames)
	e.nextID = 1
	e.globalVolume = 1
	e.globalPan = 0.5
	e.musicVolume = 1
	e.musicPitch = 1
	e.soundVolume = 1
	e.musicPlayingID = 0
	e.musicNextID = 0
	e.running = true
	return nil
}

// Shutdown drains every instance, releasing source ref-counts, then flips
// the running flag off (spec §5: "shutdown flips the running flag under
// the lock ... waits for the device stream to be torn down" — the device
// teardown itself is the caller's responsibility via device.Player.Stop,
// called before Shutdown).
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}

	e.pool.Walk(func(idx int32, inst *instance.Instance) {
		e.stopLocked(idx, inst)
	})
	e.music = music.Machine{}
	e.musicPlayingID = 0
	e.musicNextID = 0
	e.deferredFree = nil
	e.running = false
}

// Update advances the music state machine by dt seconds and sweeps the
// deferred-free queue (spec §3 "A separate per-tick call ... advances the
// music state machine and sweeps the deferred-free queue").
func (e *Engine) Update(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}

	playing := e.musicInstanceLocked(&e.musicPlayingID)
	next := e.musicInstanceLocked(&e.musicNextID)
	if playing == nil && next == nil {
		// Both tracks are gone (ended naturally or were stopped); any
		// in-flight fade has nothing left to drive.
		if e.music.State() != music.StateNone {
			e.music = music.Machine{}
		}
	} else {
		// A track that ended mid-fade is replaced by a scratch instance so
		// the machine still walks its transitions to completion.
		var scratch instance.Instance
		p, n := playing, next
		if p == nil {
			p = &scratch
		}
		if n == nil {
			n = &scratch
		}
		e.music.Advance(dt, p, n)
	}
	if e.music.State() == music.StatePlaying && e.musicNextID != 0 {
		e.musicPlayingID = e.musicNextID
		e.musicNextID = 0
	}
	if e.music.State() == music.StateNone {
		e.musicPlayingID = 0
		e.musicNextID = 0
	}

	metrics.SetMusicState(int(e.music.State()))
	e.sweepDeferredLocked()
}

// musicInstanceLocked resolves a music instance id to its live slot,
// clearing the id if the instance is no longer in the map.
func (e *Engine) musicInstanceLocked(id *uint64) *instance.Instance {
	if *id == 0 {
		return nil
	}
	idx, ok := e.ids.Lookup(*id)
	if !ok {
		*id = 0
		return nil
	}
	return e.pool.Slot(idx)
}

func (e *Engine) sweepDeferredLocked() {
	kept := e.deferredFree[:0]
	for _, src := range e.deferredFree {
		if src.PlayingCount == 0 {
			metrics.IncSourcesFreed()
		} else {
			kept = append(kept, src)
		}
	}
	e.deferredFree = kept
}

// SetGlobalVolume sets the master volume multiplier read by the mixer.
func (e *Engine) SetGlobalVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.globalVolume = v
}

// SetGlobalPan sets the master pan (0..1, linear law per spec §9).
func (e *Engine) SetGlobalPan(p float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.globalPan = p
}

// SetGlobalPause pauses or resumes the entire mix pass (spec §4.F step 3).
func (e *Engine) SetGlobalPause(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.globalPause = paused
}

// LoadWAV decodes a WAV byte slice into a new audio source (spec §6
// "load_wav(path_or_bytes) -> source"). Does not require the engine lock:
// decoding never touches engine state (spec §5 "decoding never holds the
// lock").
func (e *Engine) LoadWAV(data []byte) (*source.Source, error) {
	dec, err := wav.Decode(data)
	if err != nil {
		return nil, err
	}
	return source.New(dec.SampleRate, dec.SampleCount, dec.ChannelCount, dec.Channels)
}

// LoadOGG decodes an OGG Vorbis byte slice into a new audio source via the
// external collaborator (spec §6 OGG input contract).
func (e *Engine) LoadOGG(data []byte) (*source.Source, error) {
	dec, err := ogg.Decode(data)
	if err != nil {
		return nil, err
	}
	channels := ogg.Deinterleave(dec.Samples, dec.SampleCount, dec.ChannelCount)
	return source.New(dec.SampleRate, dec.SampleCount, dec.ChannelCount, channels)
}

// LoadFile dispatches on file extension to LoadWAV or LoadOGG, per the CLI's
// "dispatching on extension" binding (SPEC_FULL §4.O).
func (e *Engine) LoadFile(path string) (*source.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.ErrFileNotFound
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ogg":
		return e.LoadOGG(data)
	default:
		return e.LoadWAV(data)
	}
}

// FreeAudioSource releases a source, deferring the release until its
// playing_count reaches zero (spec §3 invariant, property 8).
func (e *Engine) FreeAudioSource(src *source.Source) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if src.PlayingCount == 0 {
		metrics.IncSourcesFreed()
		return
	}
	e.deferredFree = append(e.deferredFree, src)
	metrics.IncSourcesDeferred()
}

// PlaySound inserts a new non-music instance (spec §4.H play operation).
func (e *Engine) PlaySound(src *source.Source, params PlayParams) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playLocked(src, params, false)
}

// MusicPlay starts music playback directly at full music volume (spec
// §4.I "explicit calls ... update the state according to the current
// state"). If music is already playing, the previous track is stopped
// immediately first.
func (e *Engine) MusicPlay(src *source.Source, params PlayParams) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopCurrentMusicLocked()

	id, err := e.playLocked(src, params, true)
	if err != nil {
		return 0, err
	}
	e.music.SetMusicVolume(e.musicVolume)
	e.music.Play(e.musicInstanceLocked(&e.musicPlayingID))
	return id, nil
}

// MusicPlayFadeIn starts music playback ramping in over fadeIn seconds.
func (e *Engine) MusicPlayFadeIn(src *source.Source, params PlayParams, fadeIn float64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopCurrentMusicLocked()

	id, err := e.playLocked(src, params, true)
	if err != nil {
		return 0, err
	}
	e.music.SetMusicVolume(e.musicVolume)
	e.music.PlayFadeIn(e.musicInstanceLocked(&e.musicPlayingID), fadeIn)
	return id, nil
}

// MusicStop fades the current music track out over fadeOut seconds.
func (e *Engine) MusicStop(fadeOut float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	playing := e.musicInstanceLocked(&e.musicPlayingID)
	if playing == nil {
		return nil
	}
	if e.music.State() == music.StatePaused {
		return errs.ErrCannotFadeOutWhileMusicPaused
	}
	return e.music.Stop(playing, fadeOut)
}

// MusicPause pauses the music state machine, preserving its state tag
// (spec §4.I Paused row).
func (e *Engine) MusicPause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.music.Pause()
	if playing := e.musicInstanceLocked(&e.musicPlayingID); playing != nil {
		playing.Paused = true
	}
	if next := e.musicInstanceLocked(&e.musicNextID); next != nil {
		next.Paused = true
	}
}

// MusicResume restores the state machine's pre-pause state.
func (e *Engine) MusicResume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.music.Resume()
	if playing := e.musicInstanceLocked(&e.musicPlayingID); playing != nil {
		playing.Paused = false
	}
	if next := e.musicInstanceLocked(&e.musicNextID); next != nil && e.music.State() != music.StateSwitchTo0 {
		next.Paused = false
	}
}

// MusicSetVolume updates the music category target volume.
func (e *Engine) MusicSetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.musicVolume = v
	e.music.SetMusicVolume(v)
}

// MusicSetPitch updates the current music instance's pitch directly.
func (e *Engine) MusicSetPitch(pitch float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.musicPitch = pitch
	if playing := e.musicInstanceLocked(&e.musicPlayingID); playing != nil {
		playing.Pitch = pitch
	}
}

// MusicSetLoop updates the current music instance's loop flag.
func (e *Engine) MusicSetLoop(looped bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if playing := e.musicInstanceLocked(&e.musicPlayingID); playing != nil {
		playing.Looped = looped
	}
}

// MusicSwitchTo begins a switch-with-gap from the current track to src
// (spec §4.I SwitchTo0/SwitchTo1). The incoming track is inserted paused;
// the music machine unpauses it at the SwitchTo0 -> SwitchTo1 transition.
func (e *Engine) MusicSwitchTo(src *source.Source, params PlayParams, fadeOut, fadeIn float64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	playing := e.musicInstanceLocked(&e.musicPlayingID)
	if playing == nil {
		id, err := e.playLocked(src, params, true)
		if err != nil {
			return 0, err
		}
		e.music.SetMusicVolume(e.musicVolume)
		e.music.PlayFadeIn(e.musicInstanceLocked(&e.musicPlayingID), fadeIn)
		return id, nil
	}

	params.Paused = true
	id, idx, err := e.insertLocked(src, params, true)
	if err != nil {
		return 0, err
	}
	e.musicNextID = id

	next := e.pool.Slot(idx)
	e.music.SetMusicVolume(e.musicVolume)
	if err := e.music.SwitchTo(playing, next, fadeOut, fadeIn); err != nil {
		return 0, err
	}
	if e.music.State() == music.StatePlaying {
		e.musicPlayingID = e.musicNextID
		e.musicNextID = 0
	}
	return id, nil
}

// MusicCrossfade begins an overlapping crossfade from the current track to
// src (spec §4.I Crossfade state).
func (e *Engine) MusicCrossfade(src *source.Source, params PlayParams, fade float64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	playing := e.musicInstanceLocked(&e.musicPlayingID)
	if playing == nil {
		id, err := e.playLocked(src, params, true)
		if err != nil {
			return 0, err
		}
		e.music.SetMusicVolume(e.musicVolume)
		e.music.PlayFadeIn(e.musicInstanceLocked(&e.musicPlayingID), fade)
		return id, nil
	}

	id, idx, err := e.insertLocked(src, params, true)
	if err != nil {
		return 0, err
	}
	e.musicNextID = id

	next := e.pool.Slot(idx)
	e.music.SetMusicVolume(e.musicVolume)
	if err := e.music.Crossfade(playing, next, fade); err != nil {
		return 0, err
	}
	if e.music.State() == music.StatePlaying {
		e.musicPlayingID = e.musicNextID
		e.musicNextID = 0
	}
	return id, nil
}

// MusicGetTime returns the current music track's position in seconds.
func (e *Engine) MusicGetTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	inst := e.musicInstanceLocked(&e.musicPlayingID)
	if inst == nil || inst.Audio == nil || inst.Audio.SampleRate == 0 {
		return 0
	}
	return inst.SampleIndex / float64(inst.Audio.SampleRate)
}

// MusicSetTime seeks the current music track. Returns
// errs.ErrSampleIndexOutOfRange if the computed offset exceeds
// sample_count (spec §9 Open Question: == sample_count is valid).
func (e *Engine) MusicSetTime(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	inst := e.musicInstanceLocked(&e.musicPlayingID)
	if inst == nil {
		return nil
	}
	return setTimeLocked(inst, seconds)
}

func setTimeLocked(inst *instance.Instance, seconds float64) error {
	if inst.Audio == nil {
		return nil
	}
	idx := seconds * float64(inst.Audio.SampleRate)
	if idx > float64(inst.Audio.SampleCount) {
		return errs.ErrSampleIndexOutOfRange
	}
	inst.SampleIndex = idx
	return nil
}

func (e *Engine) stopCurrentMusicLocked() {
	if e.musicPlayingID != 0 {
		if idx, ok := e.ids.Lookup(e.musicPlayingID); ok {
			e.stopLocked(idx, e.pool.Slot(idx))
		}
		e.musicPlayingID = 0
	}
	if e.musicNextID != 0 {
		if idx, ok := e.ids.Lookup(e.musicNextID); ok {
			e.stopLocked(idx, e.pool.Slot(idx))
		}
		e.musicNextID = 0
	}
	e.music = music.Machine{}
}

// playLocked inserts a sound instance and returns its id.
func (e *Engine) playLocked(src *source.Source, params PlayParams, isMusic bool) (uint64, error) {
	id, _, err := e.insertLocked(src, params, isMusic)
	if err != nil {
		return 0, err
	}
	if isMusic {
		e.musicPlayingID = id
	}
	return id, nil
}

func (e *Engine) insertLocked(src *source.Source, params PlayParams, isMusic bool) (uint64, int32, error) {
	if src == nil {
		return 0, 0, errs.ErrInvalidSound
	}
	startIndex := params.StartTime * float64(src.SampleRate)
	if startIndex >= float64(src.SampleCount) && src.SampleCount > 0 {
		return 0, 0, errs.ErrSampleIndexOutOfRange
	}

	pagesBefore := e.pool.PageCount()
	idx, inst := e.pool.Acquire()
	if e.pool.PageCount() > pagesBefore {
		metrics.IncPoolPages()
	}
	id := e.nextID
	e.nextID++

	inst.ID = id
	inst.IsMusic = isMusic
	inst.Active = true
	inst.Paused = params.Paused
	inst.Looped = params.Looped
	inst.Volume = params.Volume
	inst.SetPan(params.Pan)
	inst.Pitch = params.Pitch
	inst.SampleIndex = startIndex
	inst.Audio = src

	src.Retain()
	e.ids.Insert(id, idx)
	metrics.SetActiveVoiceCount(e.pool.ActiveLen())
	return id, idx, nil
}

// stopLocked implements spec §4.H's stop operation; it is also the
// mixer.StopFunc passed to Kernel.Mix.
func (e *Engine) stopLocked(idx int32, inst *instance.Instance) {
	if !inst.Active && !e.pool.InActiveList(idx) {
		return
	}
	id := inst.ID
	isMusic := inst.IsMusic
	if inst.Audio != nil {
		inst.Audio.Release()
	}
	inst.Active = false
	e.ids.Remove(id)
	e.pool.Release(idx)
	metrics.SetActiveVoiceCount(e.pool.ActiveLen())

	if isMusic {
		if e.onMusicFinish != nil {
			e.onMusicFinish(id)
		}
	} else if e.onSoundFinish != nil {
		e.onSoundFinish(id)
	}
}

// OnSoundFinish registers the finish callback for non-music instances
// (spec §6 "finish-callback registration for sound and for music").
func (e *Engine) OnSoundFinish(cb FinishCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSoundFinish = cb
}

// OnMusicFinish registers the finish callback for music instances.
func (e *Engine) OnMusicFinish(cb FinishCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onMusicFinish = cb
}

// StopSound stops a sound instance by id; unknown ids are no-ops (spec §7).
func (e *Engine) StopSound(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx, ok := e.ids.Lookup(id)
	if !ok {
		return
	}
	e.stopLocked(idx, e.pool.Slot(idx))
}

// StopAllPlayingSounds sets active=false on every non-music instance; the
// mixer cleans them up on its next pass (spec §4.H).
func (e *Engine) StopAllPlayingSounds() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pool.Walk(func(_ int32, inst *instance.Instance) {
		if !inst.IsMusic {
			inst.Active = false
		}
	})
}

// SetPlayingSoundsVolume sets volume on every active non-music instance.
func (e *Engine) SetPlayingSoundsVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pool.Walk(func(_ int32, inst *instance.Instance) {
		if !inst.IsMusic {
			inst.Volume = v
		}
	})
}

// SetSoundVolume sets the sound category's target volume, read by the
// mixer as category_volume for non-music instances.
func (e *Engine) SetSoundVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.soundVolume = v
}

// --- id-based sound accessors/mutators (spec §6 "sound accessors and
// mutators by id"; unknown ids are no-ops per spec §7, except SetTime,
// which returns errs.ErrInvalidSound). ---

func (e *Engine) withInstance(id uint64, fn func(*instance.Instance)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx, ok := e.ids.Lookup(id)
	if !ok {
		return
	}
	fn(e.pool.Slot(idx))
}

// SetVolume sets an instance's volume by id.
func (e *Engine) SetVolume(id uint64, v float64) { e.withInstance(id, func(i *instance.Instance) { i.Volume = v }) }

// SetPan sets an instance's pan (0..1) by id.
func (e *Engine) SetPan(id uint64, p float64) { e.withInstance(id, func(i *instance.Instance) { i.SetPan(p) }) }

// SetPitch sets an instance's pitch by id.
func (e *Engine) SetPitch(id uint64, p float64) { e.withInstance(id, func(i *instance.Instance) { i.Pitch = p }) }

// SetLooped sets an instance's loop flag by id.
func (e *Engine) SetLooped(id uint64, looped bool) { e.withInstance(id, func(i *instance.Instance) { i.Looped = looped }) }

// SetPaused pauses or resumes an instance by id.
func (e *Engine) SetPaused(id uint64, paused bool) { e.withInstance(id, func(i *instance.Instance) { i.Paused = paused }) }

// SetTime seeks an instance by id; returns errs.ErrSampleIndexOutOfRange if
// the computed offset exceeds sample_count, and errs.ErrInvalidSound if id
// is unknown.
func (e *Engine) SetTime(id uint64, seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx, ok := e.ids.Lookup(id)
	if !ok {
		return errs.ErrInvalidSound
	}
	return setTimeLocked(e.pool.Slot(idx), seconds)
}

// GetVolume, GetPan, GetPitch, GetLooped, GetPaused, GetTime are the
// corresponding getters; each returns the zero value for an unknown id
// (spec §7: "no-ops returning zero/false/no-error-set").

func (e *Engine) GetVolume(id uint64) (v float64) {
	e.withInstance(id, func(i *instance.Instance) { v = i.Volume })
	return
}

func (e *Engine) GetPan(id uint64) (p float64) {
	e.withInstance(id, func(i *instance.Instance) { p = i.Pan() })
	return
}

func (e *Engine) GetPitch(id uint64) (p float64) {
	e.withInstance(id, func(i *instance.Instance) { p = i.Pitch })
	return
}

func (e *Engine) GetLooped(id uint64) (looped bool) {
	e.withInstance(id, func(i *instance.Instance) { looped = i.Looped })
	return
}

func (e *Engine) GetPaused(id uint64) (paused bool) {
	e.withInstance(id, func(i *instance.Instance) { paused = i.Paused })
	return
}

func (e *Engine) GetTime(id uint64) (seconds float64) {
	e.withInstance(id, func(i *instance.Instance) {
		if i.Audio != nil && i.Audio.SampleRate > 0 {
			seconds = i.SampleIndex / float64(i.Audio.SampleRate)
		}
	})
	return
}

// IsPlaying reports whether id is currently in the active list.
func (e *Engine) IsPlaying(id uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.ids.Lookup(id)
	return ok
}

// ActiveVoiceCount returns the number of instances currently mixing.
func (e *Engine) ActiveVoiceCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pool.ActiveLen()
}

// MixInto runs one mixer pass for `frames` output frames and returns the
// interleaved int16 samples (spec §4.F, driven by the device adapter
// §4.J). The returned slice is only valid until the next MixInto call.
func (e *Engine) MixInto(frames int) []int16 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return nil
	}

	params := mixer.Params{
		GlobalVolume: e.globalVolume,
		GlobalPan:    e.globalPan,
		GlobalPause:  e.globalPause,
		MusicVolume:  e.musicVolume,
		SoundVolume:  e.soundVolume,
		ShuttingDown: false,
	}
	start := time.Now()
	e.mixer.Mix(e.pool, frames, params, e.stopLocked)
	metrics.RecordMixDuration(time.Since(start))
	metrics.SetActiveVoiceCount(e.pool.ActiveLen())
	return e.mixer.Output()
}
