package module

import (
	"fmt"
	"image"
)

// KeyID identifies a key on the Stream Deck Plus, Key1 through Key8.
type KeyID uint8

const (
	Key1 KeyID = iota + 1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
)

func (k KeyID) String() string {
	return fmt.Sprintf("key%d", uint8(k))
}

// DialID identifies a dial on the Stream Deck Plus, Dial1 through Dial4.
type DialID uint8

const (
	Dial1 DialID = iota + 1
	Dial2
	Dial3
	Dial4
)

func (d DialID) String() string {
	return fmt.Sprintf("dial%d", uint8(d))
}

// AllKeys returns every key in order.
func AllKeys() []KeyID {
	return []KeyID{Key1, Key2, Key3, Key4, Key5, Key6, Key7, Key8}
}

// AllDials returns every dial in order.
func AllDials() []DialID {
	return []DialID{Dial1, Dial2, Dial3, Dial4}
}

// Resources is the part of the deck a module owns. Gestures that start in
// StripRect are delivered to the module in StripRect-local coordinates.
type Resources struct {
	Keys      []KeyID
	Dials     []DialID
	StripRect image.Rectangle // empty: no strip region
}

// HasStrip reports whether a strip region is allocated.
func (r Resources) HasStrip() bool {
	return !r.StripRect.Empty()
}

// KeyIndex returns the position of key in the allocation, or -1.
func (r Resources) KeyIndex(key KeyID) int {
	for i, k := range r.Keys {
		if k == key {
			return i
		}
	}
	return -1
}

// DialIndex returns the position of dial in the allocation, or -1.
func (r Resources) DialIndex(dial DialID) int {
	for i, d := range r.Dials {
		if d == dial {
			return i
		}
	}
	return -1
}

// OwnsStripPoint reports whether p, in full strip coordinates, lies in the
// module's strip region.
func (r Resources) OwnsStripPoint(p image.Point) bool {
	return r.HasStrip() && p.In(r.StripRect)
}

// ToLocal converts a full strip point into region-local coordinates.
func (r Resources) ToLocal(p image.Point) image.Point {
	return p.Sub(r.StripRect.Min)
}

// Conflicts returns an error naming the first key, dial or strip area that
// r and other both claim.
func (r Resources) Conflicts(other Resources) error {
	for _, k := range r.Keys {
		if other.KeyIndex(k) >= 0 {
			return fmt.Errorf("%v allocated twice", k)
		}
	}
	for _, d := range r.Dials {
		if other.DialIndex(d) >= 0 {
			return fmt.Errorf("%v allocated twice", d)
		}
	}
	if r.HasStrip() && other.HasStrip() && r.StripRect.Overlaps(other.StripRect) {
		return fmt.Errorf("strip regions %v and %v overlap", r.StripRect, other.StripRect)
	}
	return nil
}
