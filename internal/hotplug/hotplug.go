// Package hotplug signals when a Stream Deck may have become available, so
// the daemon can probe for it right away instead of waiting for its next poll.
package hotplug

import "context"

// ElgatoVendorID is the USB vendor ID of every Stream Deck model.
const ElgatoVendorID uint16 = 0x0fd9

// Merge fans several signal channels into one. Signals coalesce: a burst
// that arrives while the consumer is busy is delivered once. Nil sources are
// skipped. Forwarding stops when ctx is done.
func Merge(ctx context.Context, sources ...<-chan struct{}) <-chan struct{} {
	out := make(chan struct{}, 1)

	for _, src := range sources {
		if src == nil {
			continue
		}
		go func(src <-chan struct{}) {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-src:
					if !ok {
						return
					}
					select {
					case out <- struct{}{}:
					default:
					}
				}
			}
		}(src)
	}

	return out
}

// Drain discards pending signals without blocking and reports how many
// were dropped.
func Drain(ch <-chan struct{}) int {
	n := 0
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}
