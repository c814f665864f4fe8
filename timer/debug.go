package timer

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	// Disabled by default; timer traces cost a call per event when on
	debugEnabled bool
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	if writer != nil {
		debugPrintln = writer
	}
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

func debug(msg string) {
	if debugEnabled {
		debugPrintln(msg)
	}
}
