package swipe

import "time"

// phase is the state of the gesture machine.
type phase uint8

const (
	phaseIdle phase = iota
	phaseTracking
	phaseSwiping
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseTracking:
		return "tracking"
	case phaseSwiping:
		return "swiping"
	default:
		return "unknown"
	}
}

// transitions lists the legal phase changes. A start from any phase is
// legal: it abandons the previous gesture without ending it.
var transitions = [3][3]bool{
	phaseIdle:     {phaseTracking: true},
	phaseTracking: {phaseIdle: true, phaseTracking: true, phaseSwiping: true},
	phaseSwiping:  {phaseIdle: true, phaseTracking: true, phaseSwiping: true},
}

func canTransition(from, to phase) bool {
	return transitions[from][to]
}

// gesture is the transient state of one gesture. Outside phaseIdle the
// remaining fields are valid; origin never changes once set.
type gesture struct {
	phase  phase
	source Source
	origin Point
	start  time.Time
	first  bool
	last   EventData
}

func (g *gesture) active() bool {
	return g.phase != phaseIdle
}

func (g *gesture) begin(src Source, origin Point, start time.Time) {
	*g = gesture{
		phase:  phaseTracking,
		source: src,
		origin: origin,
		start:  start,
		first:  true,
	}
}

func (g *gesture) reset() {
	*g = gesture{}
}
