package main

import (
	"context"
	"image"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phinze/swipedeck/internal/config"
	"github.com/phinze/swipedeck/internal/coordinator"
	"github.com/phinze/swipedeck/internal/device"
	"github.com/phinze/swipedeck/internal/device/emulator"
	"github.com/phinze/swipedeck/internal/module"
	"github.com/phinze/swipedeck/internal/modules/hud"
)

func main() {
	log.Println("=== Stream Deck Emulator ===")
	log.Println("Drag on the strip to swipe. Close window or press Ctrl+C to exit")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: config load: %v, using defaults", err)
		cfg = config.Default()
	}

	// There is no touch screen on a desktop; mouse drags stand in for touches
	// unless the config says otherwise.
	gestures := cfg.Gesture.SwipeConfig()
	if os.Getenv("SWIPEDECK_TRACK_MOUSE") == "" {
		gestures.TrackMouse = true
	}

	emu := emulator.New(gestures)
	if err := emu.Open(); err != nil {
		log.Fatalf("Failed to open emulator: %v", err)
	}

	go runWithDevice(ctx, cfg, emu)

	// Run GUI on main thread (required for macOS)
	if err := emu.RunGUI(); err != nil {
		log.Printf("Emulator GUI error: %v", err)
	}
}

// runWithDevice runs the coordinator with the given device until context cancel.
func runWithDevice(ctx context.Context, cfg *config.Config, dev device.Device) {
	log.Printf("Connected to: %s", dev.GetModelName())

	dev.SetBrightness(byte(cfg.Brightness))
	dev.ForEachKey(func(key device.KeyID) error {
		return dev.ClearKey(key)
	})

	coord := coordinator.New(dev)
	err := coord.RegisterModule(hud.New(dev), module.Resources{
		Keys:      module.AllKeys(),
		Dials:     module.AllDials(),
		StripRect: image.Rect(0, 0, 800, 100),
	})
	if err != nil {
		log.Printf("Registering modules: %v", err)
		dev.Close()
		return
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- coord.Start(ctx)
	}()

	log.Println("Ready! Swipe the strip with the mouse")

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-errChan:
		if err != nil {
			log.Printf("Coordinator error: %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		coord.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		log.Println("Cleanup timed out")
	}

	dev.Close()
}
