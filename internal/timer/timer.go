// Package timer provides a coarse clock for the accept loops, which set a deadline on
// every iteration and don't need more than a fraction of a second of precision.
package timer

import (
	"sync/atomic"
	"time"
)

// Resolution is how often the clock is refreshed.
const Resolution = 500 * time.Millisecond

var millis = new(atomic.Int64)

// Now returns the current time, lagging behind by at most Resolution.
func Now() time.Time {
	return time.UnixMilli(millis.Load())
}

func init() {
	// store synchronously, so that the very first Now() doesn't observe the epoch
	millis.Store(time.Now().UnixMilli())

	go func() {
		ticker := time.NewTicker(Resolution)
		for now := range ticker.C {
			millis.Store(now.UnixMilli())
		}
	}()
}
