package main

import (
	"log"

	"github.com/prashantgupta24/mac-sleep-notifier/notifier"
)

// wakeSignals reports system wake. USB devices have to be reopened after
// sleep, so a wake tears down the current connection.
func wakeSignals() <-chan struct{} {
	sleepCh := notifier.GetInstance().Start()
	wakeCh := make(chan struct{}, 1)
	go func() {
		for activity := range sleepCh {
			if activity.Type != notifier.Awake {
				continue
			}
			log.Println("System wake detected")
			select {
			case wakeCh <- struct{}{}:
			default:
			}
		}
	}()
	return wakeCh
}
