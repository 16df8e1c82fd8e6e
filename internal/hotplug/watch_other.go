//go:build !darwin

package hotplug

import "context"

// Watch returns a channel that never fires. Without an arrival notification
// source the daemon falls back to polling.
func Watch(ctx context.Context, vendorID uint16) <-chan struct{} {
	return make(chan struct{})
}
