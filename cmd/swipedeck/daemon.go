package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phinze/swipedeck/internal/config"
	"github.com/phinze/swipedeck/internal/coordinator"
	"github.com/phinze/swipedeck/internal/device"
	"github.com/phinze/swipedeck/internal/hotplug"
	"github.com/phinze/swipedeck/internal/module"
	"github.com/phinze/swipedeck/internal/modules/hud"
	"github.com/spf13/cobra"
	"rafaelmartins.com/p/streamdeck"
)

const (
	deviceTimeout = 5 * time.Second
	pollInterval  = 2 * time.Second
)

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log.Println("=== swipedeck ===")
	log.Println("Press Ctrl+C to exit")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wake and device arrival both mean "probe now". While connected, either
	// one tears the connection down so it can be reopened cleanly.
	signals := hotplug.Merge(ctx, wakeSignals(), hotplug.Watch(ctx, hotplug.ElgatoVendorID))

	for {
		dev := waitForHardwareDevice(ctx, cfg, signals)
		if dev == nil {
			break
		}

		select {
		case <-ctx.Done():
			dev.Close()
			return nil
		default:
		}

		// USB enumeration may not be complete even after GetDevice succeeds.
		time.Sleep(500 * time.Millisecond)

		// Signals from before this connection would tear it down at once.
		if n := hotplug.Drain(signals); n > 0 {
			log.Printf("Dropped %d stale reconnect signal(s)", n)
		}

		runWithDevice(ctx, cfg, dev, signals)

		select {
		case <-ctx.Done():
			log.Println("Exiting...")
			return nil
		default:
			log.Println("Waiting for device reconnect...")
		}
	}

	log.Println("Exiting...")
	return nil
}

// tryGetDeviceWithTimeout attempts to get and open a Stream Deck device.
// The timeout prevents blocking indefinitely when the USB subsystem is in
// a bad state.
func tryGetDeviceWithTimeout(timeout time.Duration) *streamdeck.Device {
	type result struct {
		dev *streamdeck.Device
		err error
	}
	ch := make(chan result, 1)

	go func() {
		dev, err := streamdeck.GetDevice("")
		if err != nil {
			ch <- result{nil, err}
			return
		}
		if err := dev.Open(); err != nil {
			ch <- result{nil, err}
			return
		}
		ch <- result{dev, nil}
	}()

	select {
	case r := <-ch:
		return r.dev
	case <-time.After(timeout):
		log.Println("Device detection timed out")
		return nil
	}
}

// waitForHardwareDevice polls for a Stream Deck until one is available.
// A signal triggers a burst of quick retries instead of waiting for the
// next poll.
func waitForHardwareDevice(ctx context.Context, cfg *config.Config, signals <-chan struct{}) device.Device {
	wrap := func(dev *streamdeck.Device) device.Device {
		return device.NewHardware(dev, cfg.Gesture.SwipeConfig())
	}

	if dev := tryGetDeviceWithTimeout(deviceTimeout); dev != nil {
		return wrap(dev)
	}

	log.Println("Waiting for device...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-signals:
			// Devices may take several seconds to enumerate after wake.
			log.Println("Reconnect signal received, probing for device...")
			for i := 0; i < 10; i++ {
				if dev := tryGetDeviceWithTimeout(deviceTimeout); dev != nil {
					log.Println("Device connected!")
					return wrap(dev)
				}
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(500 * time.Millisecond):
				}
			}
			log.Println("Device not found after signal, resuming polling...")
		case <-time.After(pollInterval):
		}

		if dev := tryGetDeviceWithTimeout(deviceTimeout); dev != nil {
			log.Println("Device connected!")
			return wrap(dev)
		}
	}
}

// layout assigns every control and the whole strip to the gesture HUD.
func layout() module.Resources {
	return module.Resources{
		Keys:      module.AllKeys(),
		Dials:     module.AllDials(),
		StripRect: image.Rect(0, 0, 800, 100),
	}
}

// runWithDevice runs the coordinator until disconnect, a reconnect signal,
// or context cancel.
func runWithDevice(ctx context.Context, cfg *config.Config, dev device.Device, signals <-chan struct{}) {
	log.Printf("Connected to: %s", dev.GetModelName())

	if err := dev.SetBrightness(byte(cfg.Brightness)); err != nil {
		log.Printf("Setting brightness: %v", err)
	}
	dev.ForEachKey(func(key device.KeyID) error {
		return dev.ClearKey(key)
	})

	coord := coordinator.New(dev)
	if err := coord.RegisterModule(hud.New(dev), layout()); err != nil {
		log.Printf("Registering modules: %v", err)
		dev.Close()
		return
	}

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- coord.Start(runCtx)
	}()

	log.Println("Ready! Swipe the touch strip")

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-errChan:
		if err != nil {
			log.Printf("Device disconnected: %v", err)
		}
	case <-signals:
		log.Println("Reconnecting device...")
	}

	runCancel()

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

	// The HID library does not cancel in-flight reads on close; let pending
	// callbacks drain before the handle goes away.
	time.Sleep(200 * time.Millisecond)

	closeDone := make(chan struct{})
	go func() {
		dev.Close()
		close(closeDone)
	}()

	// Close may block indefinitely; on shutdown exit regardless.
	select {
	case <-ctx.Done():
		log.Println("Exiting...")
		os.Exit(0)
	case <-closeDone:
	case <-time.After(3 * time.Second):
		log.Println("Device close timed out")
	}
}
