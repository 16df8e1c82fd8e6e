// Command swipedeck-term is a swipe pad in the terminal: mouse drags are run
// through the gesture recognizer and every tap and swipe is listed.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/phinze/swipedeck/internal/config"
	"github.com/phinze/swipedeck/internal/swipe"
	"github.com/spf13/cobra"
)

var (
	configPath string
	withChirp  bool
	rotation   float64
	delta      float64
	duration   time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "swipedeck-term",
	Short:         "Try out swipe recognition with the mouse in a terminal",
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configPath, "config", "", "config file (default "+config.DefaultConfigPath()+")")
	f.BoolVar(&withChirp, "chirp", false, "play a tone for each swipe")
	f.Float64Var(&rotation, "rotation", 0, "rotation angle in degrees (overrides config)")
	f.Float64Var(&delta, "delta", 0, "dead zone in cells (overrides config)")
	f.DurationVar(&duration, "duration", 0, "swipe duration limit (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// gestureConfig merges the config file with command line overrides. The
// terminal only reports a mouse, so mouse tracking is always on.
func gestureConfig(cmd *cobra.Command) (swipe.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return swipe.Config{}, err
	}

	sc := cfg.Gesture.SwipeConfig()
	sc.TrackMouse = true
	sc.TrackTouch = false
	if cmd.Flags().Changed("rotation") {
		sc.RotationAngle = rotation
	}
	if cmd.Flags().Changed("delta") {
		sc.Delta = swipe.UniformDelta(delta)
	}
	if cmd.Flags().Changed("duration") {
		sc.SwipeDuration = duration
	}
	return sc, nil
}

func run(cmd *cobra.Command, args []string) error {
	sc, err := gestureConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	// The screen owns the terminal; log lines would tear the display.
	log.SetOutput(io.Discard)

	w, h := screen.Size()
	p := newPad(sc, w, h)

	if withChirp {
		c, err := newChirper()
		if err != nil {
			p.logf("audio unavailable: %v", err)
		} else {
			defer c.close()
			p.onSwiped = func(dir swipe.Direction) {
				if err := c.play(dir); err != nil {
					p.logf("chirp: %v", err)
				}
			}
		}
	}

	for {
		p.draw(screen)

		switch ev := screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			p.resize(ev.Size())
			screen.Sync()
		case *tcell.EventMouse:
			p.handleMouse(ev)
		case *tcell.EventKey:
			if quit := handleKey(p, ev); quit {
				return nil
			}
		}
	}
}

// handleKey applies a key binding and reports whether to quit.
func handleKey(p *pad, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'q':
		return true
	case 'r':
		p.rotate(90)
	case 'R':
		p.rotate(-90)
	case '+', '=':
		p.adjustDelta(1)
	case '-':
		p.adjustDelta(-1)
	case 'c':
		p.lines = p.lines[:0]
		p.trail = p.trail[:0]
	}
	return false
}
