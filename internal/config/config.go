// Package config provides centralized engine configuration, following the
// teacher's internal/config package: one Default* constructor per concern,
// and a *FromEnv variant that layers plain os.Getenv overrides on top. No
// YAML/viper dependency is introduced — the teacher's own config package
// uses the same os.Getenv + strconv pattern, so this module follows it
// rather than reaching for a richer config library the teacher doesn't use.
package config

import (
	"os"
	"strconv"

	"soundengine/internal/engine"
	"soundengine/internal/pool"
)

// DeviceConfig selects the playback backend device and its requested
// format (SPEC_FULL §4.K).
type DeviceConfig struct {
	DeviceIndex int // -1 for the system default output device
	SampleRate  int
	Channels    int
}

// DefaultDevice returns the default device configuration: system default
// output, 44100 Hz stereo.
func DefaultDevice() DeviceConfig {
	return DeviceConfig{
		DeviceIndex: -1,
		SampleRate:  44100,
		Channels:    2,
	}
}

// DeviceFromEnv layers SOUNDENGINE_DEVICE_INDEX / SOUNDENGINE_SAMPLE_RATE
// overrides onto DefaultDevice.
func DeviceFromEnv() DeviceConfig {
	cfg := DefaultDevice()
	cfg.DeviceIndex = getEnvInt("SOUNDENGINE_DEVICE_INDEX", cfg.DeviceIndex)
	if v := getEnvInt("SOUNDENGINE_SAMPLE_RATE", 0); v > 0 {
		cfg.SampleRate = v
	}
	return cfg
}

// EngineConfig covers the engine aggregate's tunables (SPEC_FULL §4.K):
// pool sizing, id map sizing, mix block size, and a concurrent voice count
// threshold.
type EngineConfig struct {
	Device DeviceConfig

	PoolPageSize         int
	IdMapInitialCapacity int
	MixBlockFrames       int

	// MaxConcurrentSounds is carried in the config only: neither the engine
	// (ToEngineConfig does not pass it on) nor the metrics package reads it,
	// and the pool never refuses to grow past it (spec §4.H: "growth never
	// returns failure").
	MaxConcurrentSounds int
}

// DefaultEngine returns the engine's default configuration.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		Device:               DefaultDevice(),
		PoolPageSize:         pool.DefaultPageSize,
		IdMapInitialCapacity: 256,
		MixBlockFrames:       1024,
		MaxConcurrentSounds:  256,
	}
}

// EngineFromEnv layers SOUNDENGINE_POOL_PAGE_SIZE / SOUNDENGINE_MIX_BLOCK_FRAMES
// / SOUNDENGINE_MAX_CONCURRENT_SOUNDS overrides onto DefaultEngine.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()
	cfg.Device = DeviceFromEnv()

	if v := getEnvInt("SOUNDENGINE_POOL_PAGE_SIZE", 0); v > 0 {
		cfg.PoolPageSize = v
	}
	if v := getEnvInt("SOUNDENGINE_ID_MAP_CAPACITY", 0); v > 0 {
		cfg.IdMapInitialCapacity = v
	}
	if v := getEnvInt("SOUNDENGINE_MIX_BLOCK_FRAMES", 0); v > 0 {
		cfg.MixBlockFrames = v
	}
	if v := getEnvInt("SOUNDENGINE_MAX_CONCURRENT_SOUNDS", 0); v > 0 {
		cfg.MaxConcurrentSounds = v
	}
	return cfg
}

// ToEngineConfig projects the subset the engine aggregate reads at Init
// time (spec §3's "engine state" construction parameters).
func (c EngineConfig) ToEngineConfig() engine.Config {
	return engine.Config{
		SampleRate:           c.Device.SampleRate,
		PoolPageSize:         c.PoolPageSize,
		IdMapInitialCapacity: c.IdMapInitialCapacity,
		MixBlockFrames:       c.MixBlockFrames,
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
