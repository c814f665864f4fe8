package host

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"

	"calltimer/host/serial"
)

type fakeClock struct {
	ms uint32
}

func (c *fakeClock) now() uint32 {
	return c.ms
}

func newTestPoller() (*Poller, *serial.MockPort, *fakeClock) {
	port := serial.NewMockPort()
	p := NewPoller(port, zap.NewNop())
	clk := &fakeClock{}
	p.Timer().SetClock(clk.now)
	return p, port, clk
}

func TestHeartbeatEveryPeriod(t *testing.T) {
	p, port, clk := newTestPoller()

	if !p.StartHeartbeat(100) {
		t.Fatal("StartHeartbeat failed on an idle poller")
	}

	// Immediate first beat, then one per period.
	if err := p.Tick(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		clk.ms += 50
		if err := p.Tick(); err != nil {
			t.Fatal(err)
		}
	}

	got := strings.Count(string(port.Written()), "beat")
	if got != 3 {
		t.Errorf("heartbeats over 2 periods = %d, want 3\noutput: %q", got, port.Written())
	}
	if !strings.HasPrefix(string(port.Written()), "beat 1\n") {
		t.Errorf("unexpected first line: %q", port.Written())
	}
}

func TestHeartbeatCountStops(t *testing.T) {
	p, port, clk := newTestPoller()

	if !p.StartHeartbeatCount(50, 2) {
		t.Fatal("StartHeartbeatCount failed on an idle poller")
	}

	for i := 0; i < 10; i++ {
		if err := p.Tick(); err != nil {
			t.Fatal(err)
		}
		clk.ms += 25
	}

	got := strings.Count(string(port.Written()), "beat")
	if got != 2 {
		t.Errorf("counted heartbeats = %d, want 2", got)
	}
	if p.Timer().Running() {
		t.Error("timer still running after counted heartbeat exhausted")
	}
}

func TestHeartbeatRejectedWhileBusy(t *testing.T) {
	p, _, _ := newTestPoller()

	if !p.StartHeartbeat(100) {
		t.Fatal("first StartHeartbeat failed")
	}
	if p.StartHeartbeat(200) {
		t.Error("second StartHeartbeat succeeded, want rejection on the busy slot")
	}
}

func TestStopHeartbeatSilencesBeat(t *testing.T) {
	p, port, clk := newTestPoller()

	p.StartHeartbeat(100)
	p.Tick() // immediate beat
	p.StopHeartbeat()

	clk.ms += 500
	p.Tick()
	p.Tick()

	got := strings.Count(string(port.Written()), "beat")
	if got != 1 {
		t.Errorf("heartbeats after stop = %d, want 1", got)
	}
}

func TestDataHandlerReceivesBytes(t *testing.T) {
	p, port, _ := newTestPoller()

	var received bytes.Buffer
	p.SetDataHandler(func(b []byte) {
		received.Write(b)
	})

	port.QueueRead([]byte("ok 42\n"))
	if err := p.Tick(); err != nil {
		t.Fatal(err)
	}

	if received.String() != "ok 42\n" {
		t.Errorf("handler received %q, want %q", received.String(), "ok 42\n")
	}
}

func TestTickWithoutScheduleIsQuiet(t *testing.T) {
	p, port, clk := newTestPoller()

	clk.ms += 5000
	if err := p.Tick(); err != nil {
		t.Fatal(err)
	}
	if len(port.Written()) != 0 {
		t.Errorf("unsolicited output: %q", port.Written())
	}
}
