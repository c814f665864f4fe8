package host

import (
	"fmt"

	"go.uber.org/zap"

	"calltimer/host/serial"
	"calltimer/timer"
)

// Poller embeds a callback timer in a cooperative serial loop. The
// timer's single slot drives a periodic heartbeat line (or whatever
// the embedder schedules on it); incoming serial bytes are handed to
// a data handler. Tick is the loop body and never blocks beyond the
// port's read timeout.
type Poller struct {
	port    serial.Port
	beat    *timer.Timer
	onData  func([]byte)
	log     *zap.Logger
	readBuf [256]byte
	seq     uint32
}

// NewPoller creates a poller over the given port. A nil logger
// disables logging.
func NewPoller(port serial.Port, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		port: port,
		beat: timer.New(),
		log:  log,
	}
}

// Timer exposes the underlying callback timer so the embedder can
// schedule its own actions on the shared slot.
func (p *Poller) Timer() *timer.Timer {
	return p.beat
}

// SetDataHandler registers fn for bytes read from the port. The slice
// is only valid until the next Tick.
func (p *Poller) SetDataHandler(fn func([]byte)) {
	p.onData = fn
}

// StartHeartbeat schedules a heartbeat line every period milliseconds.
// Returns false if the timer slot is busy.
func (p *Poller) StartHeartbeat(period uint32) bool {
	ok := p.beat.Every(period, p.sendHeartbeat)
	if !ok {
		p.log.Warn("heartbeat rejected, timer busy")
	}
	return ok
}

// StartHeartbeatCount schedules times heartbeat lines, one per period.
// Returns false if the timer slot is busy.
func (p *Poller) StartHeartbeatCount(period uint32, times int) bool {
	ok := p.beat.Repeat(period, times, p.sendHeartbeat)
	if !ok {
		p.log.Warn("heartbeat rejected, timer busy")
	}
	return ok
}

// StopHeartbeat cancels the scheduled callback and returns the elapsed
// time at the moment of stopping, in milliseconds.
func (p *Poller) StopHeartbeat() uint32 {
	elapsed := p.beat.Stop()
	p.beat.Reset()
	p.log.Info("heartbeat stopped", zap.Uint32("elapsed_ms", elapsed))
	return elapsed
}

// Send writes a single line to the port.
func (p *Poller) Send(line string) error {
	if _, err := p.port.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

func (p *Poller) sendHeartbeat() {
	p.seq++
	if err := p.Send(fmt.Sprintf("beat %d", p.seq)); err != nil {
		p.log.Warn("heartbeat write failed", zap.Error(err))
		return
	}
	p.log.Debug("heartbeat sent", zap.Uint32("seq", p.seq))
}

// Tick is the loop body: poll the timer, then drain one read from the
// port. Call it once per iteration of the embedding loop.
func (p *Poller) Tick() error {
	p.beat.Poll()

	n, err := p.port.Read(p.readBuf[:])
	if err != nil {
		return fmt.Errorf("serial read: %w", err)
	}
	if n > 0 {
		p.log.Debug("serial data", zap.Int("bytes", n))
		if p.onData != nil {
			p.onData(p.readBuf[:n])
		}
	}
	return nil
}
