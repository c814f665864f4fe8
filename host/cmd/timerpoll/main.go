package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"calltimer/host"
	"calltimer/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	period  = flag.Uint("period", 1000, "Initial heartbeat period in milliseconds (0 = none)")
	verbose = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	var log *zap.Logger
	var err error
	if *verbose {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	poller := host.NewPoller(port, log)
	poller.SetDataHandler(func(b []byte) {
		os.Stdout.Write(b)
	})

	if *period > 0 {
		poller.StartHeartbeat(uint32(*period))
	}

	// Stdin is read on a helper goroutine; the control loop below
	// stays cooperative and keeps polling the timer between lines.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Println("timerpoll - callback timer serial demo")
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if handleCommand(poller, line) {
				return
			}
		default:
		}

		if err := poller.Tick(); err != nil {
			log.Warn("tick failed", zap.Error(err))
		}
		time.Sleep(time.Millisecond)
	}
}

// handleCommand executes one console command. Returns true to quit.
func handleCommand(p *host.Poller, line string) bool {
	args, err := shlex.Split(line)
	if err != nil {
		fmt.Printf("parse error: %v\n", err)
		return false
	}
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "help":
		printHelp()

	case "quit", "exit":
		return true

	case "every":
		ms, ok := parseMillis(args, 1)
		if !ok {
			return false
		}
		if !p.StartHeartbeat(ms) {
			fmt.Println("rejected: timer busy (stop it first)")
		}

	case "repeat":
		ms, ok := parseMillis(args, 1)
		if !ok {
			return false
		}
		if len(args) < 3 {
			fmt.Println("usage: repeat <period-ms> <times>")
			return false
		}
		times, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Printf("bad count %q\n", args[2])
			return false
		}
		if !p.StartHeartbeatCount(ms, times) {
			fmt.Println("rejected: timer busy or zero count")
		}

	case "after":
		ms, ok := parseMillis(args, 1)
		if !ok {
			return false
		}
		msg := "ping"
		if len(args) > 2 {
			msg = strings.Join(args[2:], " ")
		}
		if !p.Timer().After(ms, func() {
			if err := p.Send(msg); err != nil {
				fmt.Printf("send failed: %v\n", err)
			}
		}) {
			fmt.Println("rejected: timer busy (stop it first)")
		}

	case "stop":
		fmt.Printf("stopped after %d ms\n", p.StopHeartbeat())

	case "status":
		t := p.Timer()
		fmt.Printf("running=%v started=%v preset=%dms elapsed=%dms\n",
			t.Running(), t.Started(), t.Preset(), t.Elapsed())

	default:
		fmt.Printf("unknown command %q (try 'help')\n", args[0])
	}
	return false
}

func parseMillis(args []string, idx int) (uint32, bool) {
	if len(args) <= idx {
		fmt.Println("missing millisecond argument")
		return 0, false
	}
	ms, err := strconv.ParseUint(args[idx], 10, 32)
	if err != nil {
		fmt.Printf("bad milliseconds %q\n", args[idx])
		return 0, false
	}
	return uint32(ms), true
}

func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  every <period-ms>            - heartbeat line every period")
	fmt.Println("  repeat <period-ms> <times>   - heartbeat line, limited count")
	fmt.Println("  after <delay-ms> [message]   - send one line after a delay")
	fmt.Println("  stop                         - cancel the scheduled callback")
	fmt.Println("  status                       - show timer state")
	fmt.Println("  quit                         - exit")
}
