package stack

import (
	"time"

	"github.com/indigo-web/duplex/config"
	"github.com/indigo-web/duplex/internal/metrics"
)

// Flow keeps moving averages of a connection's throughput in bytes per minute.
type Flow struct {
	bucket time.Duration
	window int
	step   int

	lastRead, lastWritten uint64
	// Read and Write are the current averages.
	Read, Write float64
}

func NewFlow(cfg config.Flow) Flow {
	return Flow{
		bucket: cfg.Bucket,
		window: cfg.Window,
	}
}

// Sample folds the bytes transferred since the previous sample into the averages. The
// weight of the history grows with every sample until it saturates at the window.
func (f *Flow) Sample(read, written uint64) {
	perMinute := float64(time.Minute) / float64(f.bucket)
	readSample := float64(read-f.lastRead) * perMinute
	writeSample := float64(written-f.lastWritten) * perMinute
	f.lastRead, f.lastWritten = read, written

	step := float64(f.step)
	f.Read = (f.Read*step + readSample) / (step + 1)
	f.Write = (f.Write*step + writeSample) / (step + 1)

	if f.step < f.window {
		f.step++
	}
}

// Violations returns every direction whose average is below its minimum. Zero
// minimums are never violated.
func (f *Flow) Violations(minRead, minWrite uint64) (directions []string) {
	if minRead > 0 && f.Read < float64(minRead) {
		directions = append(directions, metrics.Read)
	}

	if minWrite > 0 && f.Write < float64(minWrite) {
		directions = append(directions, metrics.Write)
	}

	return directions
}
