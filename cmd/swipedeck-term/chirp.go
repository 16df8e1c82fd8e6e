package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/phinze/swipedeck/internal/swipe"
)

const (
	sampleRate  = beep.SampleRate(44100)
	chirpLength = 80 * time.Millisecond
)

// chirpPitch gives each direction its own tone, rising clockwise from left.
var chirpPitch = map[swipe.Direction]float64{
	swipe.Left:  440,
	swipe.Up:    554.37,
	swipe.Right: 659.25,
	swipe.Down:  880,
}

// chirper plays a short tone per recognized swipe.
type chirper struct {
	sr beep.SampleRate
}

func newChirper() (*chirper, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, err
	}
	return &chirper{sr: sampleRate}, nil
}

// streamer returns the tone for dir, or nil for an unknown direction.
func (c *chirper) streamer(dir swipe.Direction) (beep.Streamer, error) {
	freq, ok := chirpPitch[dir]
	if !ok {
		return nil, nil
	}
	tone, err := generators.SineTone(c.sr, freq)
	if err != nil {
		return nil, err
	}
	quiet := &effects.Volume{Streamer: tone, Base: 2, Volume: -2}
	return beep.Take(c.sr.N(chirpLength), quiet), nil
}

func (c *chirper) play(dir swipe.Direction) error {
	s, err := c.streamer(dir)
	if err != nil || s == nil {
		return err
	}
	speaker.Play(s)
	return nil
}

func (c *chirper) close() {
	speaker.Close()
}
