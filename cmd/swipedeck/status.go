package main

import (
	"fmt"
	"os"
	"time"

	"github.com/phinze/swipedeck/internal/swipe"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check config, gesture settings, and device health",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== swipedeck status ===")
	fmt.Println()

	allOK := true

	path := resolvedConfigPath()
	fmt.Printf("Config file: %s\n", path)
	if _, err := os.Stat(path); err == nil {
		fmt.Println("  Status: found")
	} else {
		fmt.Println("  Status: not found, using defaults")
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("  Load error: %v\n", err)
		allOK = false
	}
	fmt.Println()

	if cfg != nil {
		sc := cfg.Gesture.SwipeConfig()
		fmt.Println("Gestures:")
		fmt.Printf("  Dead zone: left %g, right %g, up %g, down %g\n",
			sc.Delta.Threshold(swipe.Left), sc.Delta.Threshold(swipe.Right),
			sc.Delta.Threshold(swipe.Up), sc.Delta.Threshold(swipe.Down))
		fmt.Printf("  Rotation: %g degrees\n", swipe.NormalizeAngle(sc.RotationAngle))
		fmt.Printf("  Track touch: %v\n", sc.TrackTouch)
		fmt.Printf("  Track mouse: %v\n", sc.TrackMouse)
		fmt.Printf("  Prevent scroll: %v (passive listeners: %v)\n", sc.PreventScrollOnSwipe, sc.TouchEventOptions.Passive)
		if sc.SwipeDuration > 0 {
			fmt.Printf("  Swipe duration limit: %v\n", sc.SwipeDuration)
		} else {
			fmt.Println("  Swipe duration limit: none")
		}
		if !sc.TrackTouch && !sc.TrackMouse {
			fmt.Println("  WARNING: neither touch nor mouse is tracked, no gestures will be recognized")
			allOK = false
		}
		fmt.Printf("  Brightness: %d%%\n", cfg.Brightness)
		fmt.Println()
	}

	fmt.Println("Stream Deck:")
	dev := tryGetDeviceWithTimeout(2 * time.Second)
	if dev != nil {
		fmt.Printf("  Device: CONNECTED (%s)\n", dev.GetModelName())
		if dev.GetTouchStripSupported() {
			fmt.Println("  Touch strip: yes")
		} else {
			fmt.Println("  Touch strip: NO, gestures need a Stream Deck with a touch strip")
			allOK = false
		}
		dev.Close()
	} else {
		fmt.Println("  Device: not detected")
	}
	fmt.Println()

	if allOK {
		fmt.Println("All checks passed.")
	} else {
		fmt.Println("Some checks failed. Run 'swipedeck setup' to configure.")
	}

	return nil
}
