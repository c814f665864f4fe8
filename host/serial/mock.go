package serial

import "bytes"

// MockPort is an in-memory Port for tests. Reads drain bytes queued
// with QueueRead; writes accumulate and can be inspected with Written.
type MockPort struct {
	in     bytes.Buffer
	out    bytes.Buffer
	closed bool
}

// NewMockPort creates an empty mock port
func NewMockPort() *MockPort {
	return &MockPort{}
}

// QueueRead makes b available to subsequent Read calls
func (m *MockPort) QueueRead(b []byte) {
	m.in.Write(b)
}

// Written returns everything written to the port so far
func (m *MockPort) Written() []byte {
	return m.out.Bytes()
}

// Read drains queued data. An empty queue returns (0, nil), matching
// a native port hitting its read timeout.
func (m *MockPort) Read(b []byte) (int, error) {
	if m.in.Len() == 0 {
		return 0, nil
	}
	return m.in.Read(b)
}

// Write records data written by the host
func (m *MockPort) Write(b []byte) (int, error) {
	return m.out.Write(b)
}

// Flush is a no-op for the mock
func (m *MockPort) Flush() error {
	return nil
}

// Close marks the port closed
func (m *MockPort) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called
func (m *MockPort) Closed() bool {
	return m.closed
}
