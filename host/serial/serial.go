package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate (ignored by USB CDC devices)
	Baud int

	// Read timeout in milliseconds. Keep this short: the poller reads
	// once per loop iteration and must not stall the timer.
	ReadTimeout int
}

// DefaultConfig returns a default configuration
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 1, // effectively non-blocking for a polling loop
	}
}
