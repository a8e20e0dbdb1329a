// Command play loads a WAV or OGG file and plays it through the real
// output device, for manual smoke-testing of the engine (SPEC_FULL §4.O).
//
// Grounded on the teacher's cmd/server/main.go idiom: plain main(), flag
// for arguments, godotenv.Load for optional overrides, banner-style
// log.Println status lines, and os/signal + syscall for graceful
// shutdown, rather than a CLI framework the teacher itself doesn't use.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"soundengine/internal/config"
	"soundengine/internal/device"
	"soundengine/internal/engine"
)

func main() {
	path := flag.String("file", "", "path to a .wav or .ogg file to play")
	loop := flag.Bool("loop", false, "loop playback")
	volume := flag.Float64("volume", 1.0, "playback volume")
	flag.Parse()

	if *path == "" {
		log.Fatal("usage: play -file <path.wav|path.ogg> [-loop] [-volume 1.0]")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables only")
	}

	log.Println("================================")
	log.Println(" SOUNDENGINE - play")
	log.Println("================================")

	cfg := config.EngineFromEnv()
	log.Printf("device: sample_rate=%d channels=%d pool_page_size=%d",
		cfg.Device.SampleRate, cfg.Device.Channels, cfg.PoolPageSize)

	eng := engine.New()
	if err := eng.Init(cfg.ToEngineConfig()); err != nil {
		log.Fatalf("engine init failed: %v", err)
	}
	defer eng.Shutdown()

	eng.OnSoundFinish(func(id uint64) {
		log.Printf("sound %d finished", id)
	})

	src, err := eng.LoadFile(*path)
	if err != nil {
		log.Fatalf("failed to load %s: %v", *path, err)
	}
	log.Printf("loaded %s: %d Hz, %d channel(s), %d samples", *path, src.SampleRate, src.ChannelCount, src.SampleCount)

	params := engine.DefaultPlayParams()
	params.Volume = *volume
	params.Looped = *loop
	id, err := eng.PlaySound(src, params)
	if err != nil {
		log.Fatalf("play failed: %v", err)
	}
	log.Printf("playing sound id %d", id)

	player := device.New(device.Config{
		DeviceIndex: cfg.Device.DeviceIndex,
		SampleRate:  uint32(cfg.Device.SampleRate),
		Channels:    uint32(cfg.Device.Channels),
	}, eng)
	if err := player.Start(); err != nil {
		log.Fatalf("failed to open audio device: %v", err)
	}
	defer player.Stop()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("ready. press Ctrl+C to stop.")
	for {
		select {
		case <-ticker.C:
			eng.Update(0.05)
			if !*loop && !eng.IsPlaying(id) {
				log.Println("playback finished, exiting")
				return
			}
		case <-quit:
			log.Println("shutting down...")
			return
		}
	}
}
