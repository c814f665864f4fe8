package timer

import "time"

// Clock returns elapsed milliseconds since an arbitrary fixed epoch
// (device power-on, process start). It must be non-decreasing modulo
// uint32 wraparound for the life of the process.
type Clock func() uint32

var epoch = time.Now()

// Millis is the default Clock: milliseconds since package init, taken
// from the monotonic reading of time.Since. It works under both the
// standard Go runtime and TinyGo. Platforms with a hardware tick
// counter can substitute it via SetClock.
func Millis() uint32 {
	return uint32(time.Since(epoch).Milliseconds())
}
