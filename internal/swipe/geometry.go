package swipe

import (
	"math"
	"time"
)

// Point is a position in surface coordinates.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Direction is the dominant direction of a movement.
type Direction uint8

const (
	Left Direction = iota
	Right
	Up
	Down

	numDirections = 4
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "Left"
	case Right:
		return "Right"
	case Up:
		return "Up"
	case Down:
		return "Down"
	default:
		return "Unknown"
	}
}

// Axis is a movement axis.
type Axis uint8

const (
	Horizontal Axis = iota
	Vertical
)

// TieBreakAxis decides the direction when |dx| == |dy|.
const TieBreakAxis = Horizontal

// NormalizeAngle reduces degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// Rotate rotates p by angle degrees. The angle is normalized first so that
// equivalent angles (270, 630, -90) give bit-identical results.
func Rotate(p Point, angle float64) Point {
	a := NormalizeAngle(angle)
	if a == 0 {
		return p
	}
	sin, cos := math.Sincos(a * math.Pi / 180)
	return Point{
		X: p.X*cos + p.Y*sin,
		Y: p.Y*cos - p.X*sin,
	}
}

// ClassifyDirection returns the direction of the dominant axis of (dx, dy).
// Positive dx is Right and positive dy is Down.
func ClassifyDirection(dx, dy float64) Direction {
	absX, absY := math.Abs(dx), math.Abs(dy)
	horizontal := absX > absY || (absX == absY && TieBreakAxis == Horizontal)
	if horizontal {
		if dx > 0 {
			return Right
		}
		return Left
	}
	if dy > 0 {
		return Down
	}
	return Up
}

// Velocity is the delta magnitude per millisecond. A zero elapsed time
// counts as one millisecond.
func Velocity(absX, absY float64, elapsed time.Duration) float64 {
	return math.Sqrt(absX*absX+absY*absY) / elapsedMillis(elapsed)
}

func elapsedMillis(elapsed time.Duration) float64 {
	ms := float64(elapsed) / float64(time.Millisecond)
	if ms <= 0 {
		return 1
	}
	return ms
}
