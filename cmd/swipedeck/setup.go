package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/phinze/swipedeck/internal/config"
	"github.com/phinze/swipedeck/internal/swipe"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup: write gesture settings to the config file",
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("=== swipedeck setup ===")
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Existing config unreadable (%v), starting from defaults\n\n", err)
		cfg = config.Default()
	}
	g := &cfg.Gesture

	fmt.Println("-- Gestures --")
	current := g.Delta.Delta().Threshold(swipe.Left)
	delta, err := promptFloat(reader, "Dead zone in pixels", current)
	if err != nil {
		return err
	}
	if delta != current || g.Delta.Uniform != nil {
		g.Delta = config.DeltaConfig{Uniform: &delta}
	}
	if g.RotationAngle, err = promptFloat(reader, "Rotation angle in degrees", g.RotationAngle); err != nil {
		return err
	}
	if g.TrackTouch, err = promptBool(reader, "Track touch", g.TrackTouch); err != nil {
		return err
	}
	if g.TrackMouse, err = promptBool(reader, "Track mouse", g.TrackMouse); err != nil {
		return err
	}
	if g.PreventScrollOnSwipe, err = promptBool(reader, "Prevent scroll on swipe", g.PreventScrollOnSwipe); err != nil {
		return err
	}
	if g.SwipeDuration, err = promptDuration(reader, "Swipe duration limit (0 for none)", g.SwipeDuration); err != nil {
		return err
	}
	fmt.Println()

	fmt.Println("-- Display --")
	b, err := promptFloat(reader, "Brightness (0-100)", float64(cfg.Brightness))
	if err != nil {
		return err
	}
	if b < 0 || b > 100 {
		return fmt.Errorf("brightness %g out of range 0-100", b)
	}
	cfg.Brightness = int(b)
	fmt.Println()

	path := resolvedConfigPath()
	if err := config.WriteConfigFileTo(path, cfg); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	fmt.Printf("Config written to %s\n", path)
	fmt.Println("Setup complete!")
	return nil
}

// prompt asks for a value with an optional default.
func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("  %s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultVal
	}
	return line
}

func promptFloat(reader *bufio.Reader, label string, def float64) (float64, error) {
	s := prompt(reader, label, strconv.FormatFloat(def, 'g', -1, 64))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", label, err)
	}
	return v, nil
}

func promptBool(reader *bufio.Reader, label string, def bool) (bool, error) {
	s := prompt(reader, label, strconv.FormatBool(def))
	switch strings.ToLower(s) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s: %w", label, err)
	}
	return v, nil
}

func promptDuration(reader *bufio.Reader, label string, def time.Duration) (time.Duration, error) {
	s := prompt(reader, label, def.String())
	if s == "0" {
		return 0, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", label, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s: must not be negative", label)
	}
	return v, nil
}
