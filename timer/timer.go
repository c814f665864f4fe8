package timer

// DefaultDuration is the preset used by New, in milliseconds.
const DefaultDuration = 1000

// Forever schedules a repeating timer with no repetition limit.
const Forever = -1

// Task is a scheduled callback. The embedder owns the underlying
// function; the timer holds a reference and clears it on completion
// or reset.
type Task func()

// Timer is a cooperative one-slot callback timer. It never blocks and
// never spawns goroutines: the embedder calls Poll once per iteration
// of its own control loop, and the timer fires the registered task
// based on elapsed milliseconds from its Clock.
//
// A Timer belongs to exactly one caller. Concurrent use from multiple
// goroutines is not supported.
type Timer struct {
	duration    uint32
	lastStart   uint32
	started     bool
	done        bool
	repeatMode  bool
	repetitions int
	justArmed   bool
	task        Task
	now         Clock
}

// New creates a timer with the default one second preset.
func New() *Timer {
	return NewWithDuration(DefaultDuration)
}

// NewWithDuration creates a timer with the given preset in milliseconds.
func NewWithDuration(d uint32) *Timer {
	return &Timer{duration: d, now: Millis}
}

// SetClock replaces the millisecond source. Platform code can point
// this at a hardware tick counter; tests inject a fake clock.
func (t *Timer) SetClock(now Clock) {
	if now != nil {
		t.now = now
	}
}

// Set changes the preset duration in milliseconds. Allowed at any
// time, running or not; it does not touch the start timestamp.
func (t *Timer) Set(d uint32) {
	t.duration = d
}

// Preset returns the configured duration in milliseconds.
func (t *Timer) Preset() uint32 {
	return t.duration
}

// Started reports whether the timer has been started and not yet
// stopped. Unlike Running it ignores completion.
func (t *Timer) Started() bool {
	return t.started
}

// After schedules task to run once after delay milliseconds. It fails
// and returns false, with no state change, if a callback is already
// armed and running.
func (t *Timer) After(delay uint32, task Task) bool {
	if t.Running() {
		debug("timer: one-shot rejected, busy")
		return false
	}
	t.Set(delay)
	return t.Arm(task)
}

// Arm schedules task to run once after the currently set preset
// elapses. It fails and returns false if the timer is running.
func (t *Timer) Arm(task Task) bool {
	if t.Running() {
		debug("timer: one-shot rejected, busy")
		return false
	}
	t.task = task
	t.repeatMode = false
	t.Start()
	return true
}

// Every schedules task to run on the first Poll and then once per
// period until stopped. Same failure rules as Repeat.
func (t *Timer) Every(period uint32, task Task) bool {
	return t.Repeat(period, Forever, task)
}

// Repeat schedules task to run on the first Poll and then once per
// period, times invocations in total. Negative times means no limit.
// It fails and returns false, leaving the timer untouched, when the
// timer is running, when a previous repeating cycle is still waiting
// for its first Poll, or when times is zero (a zero-count repeat
// schedules nothing).
func (t *Timer) Repeat(period uint32, times int, task Task) bool {
	if t.Running() || t.justArmed {
		debug("timer: repeat rejected, busy")
		return false
	}
	if times == 0 {
		debug("timer: repeat rejected, zero count")
		return false
	}
	t.Reset()
	t.task = task
	t.Set(period)
	t.repetitions = times
	t.repeatMode = true
	t.justArmed = true
	t.Start()
	return true
}

// Poll advances the timer. Call it once per loop iteration; the call
// interval need not be regular, firing is driven purely by elapsed
// time. At most one task invocation happens per Poll, except that the
// first Poll after scheduling a repeating timer also consumes the
// immediate first fire.
func (t *Timer) Poll() {
	// A freshly scheduled repeating timer fires on its first Poll,
	// before any time has necessarily passed.
	if t.repeatMode && t.justArmed {
		t.justArmed = false
		if t.task != nil {
			t.repetitions--
			debug("timer: first fire")
			t.task()
		}
	}
	if !t.Done() {
		return
	}
	if t.task == nil {
		return
	}
	if !t.repeatMode {
		debug("timer: one-shot fire")
		t.task()
		t.Reset()
	} else if t.repetitions != 0 {
		debug("timer: repeat fire")
		t.task()
		t.repetitions--
		t.Start()
	} else {
		// Counted repeat exhausted: stop and clear the callback.
		// The repetition counter observably stays at zero.
		debug("timer: repeat exhausted")
		t.Reset()
	}
}

// Done reports whether the timer has started and its preset has
// elapsed. A true result latches the internal done cache.
func (t *Timer) Done() bool {
	if t.started && t.Elapsed() >= t.duration {
		t.done = true
		return true
	}
	return false
}

// Running reports whether the timer has started and not yet reached
// its preset.
func (t *Timer) Running() bool {
	return t.started && !t.Done()
}

// Elapsed returns milliseconds since the timer last started. The
// subtraction is modular uint32, so a wrapping millisecond counter
// still yields correct intervals below 2^32 ms.
func (t *Timer) Elapsed() uint32 {
	return t.now() - t.lastStart
}

// Start arms the timer from now. Safe to call while already started;
// it simply re-arms from the current clock reading.
func (t *Timer) Start() {
	t.lastStart = t.now()
	t.done = false
	t.started = true
}

// Stop stops the timer and returns the elapsed time at the moment of
// stopping. Stopping a timer that is still running refreshes its start
// timestamp first, so the returned elapsed time is measured from the
// stop itself on later reads.
func (t *Timer) Stop() uint32 {
	t.done = t.Done()
	if t.Running() {
		t.lastStart = t.now()
	}
	t.started = false
	return t.Elapsed()
}

// Reset stops the timer, zeroes the repetition counter, releases the
// first-fire guard and drops the callback reference. The preset
// duration and repeat mode are left as configured.
func (t *Timer) Reset() {
	t.Stop()
	t.done = t.Done()
	t.lastStart = t.now()
	t.repetitions = 0
	t.justArmed = false
	t.task = nil
}
