package analysis

import (
	"sync"
	"time"
)

// progressSimulator advances a cosmetic percentage on a fixed tick while a run
// waits for the agent. It knows nothing about real request progress.
type progressSimulator struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// startProgress calls advance on every tick until stopped
func startProgress(interval time.Duration, advance func()) *progressSimulator {
	p := &progressSimulator{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				// a tick and a stop can be ready together
				select {
				case <-p.stop:
					return
				default:
				}
				advance()
			}
		}
	}()

	return p
}

// Stop halts the simulator and waits for its goroutine to exit. No advance
// call happens after Stop returns. Safe to call more than once.
func (p *progressSimulator) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

// nextProgress applies one random increment and caps the result
func nextProgress(current, increment, limit float64) float64 {
	return min(current+increment, limit)
}
