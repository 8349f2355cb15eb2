package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// terminal shows alerts on stderr and asks for confirmation on stdin.
type terminal struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool

	mu     sync.Mutex
	alerts []string
}

func newTerminal(in io.Reader, out io.Writer, assumeYes bool) *terminal {
	return &terminal{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

func (t *terminal) Alert(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.alerts = append(t.alerts, message)
	fmt.Fprintf(t.out, "error: %s\n", message)
}

// Confirm accepts y, yes, д and да in any case. Anything else, including
// end of input, declines.
func (t *terminal) Confirm(message string) bool {
	if t.assumeYes {
		return true
	}
	fmt.Fprintf(t.out, "%s [y/N]: ", message)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(t.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "д", "да":
		return true
	}
	return false
}

func (t *terminal) alerted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.alerts) > 0
}
