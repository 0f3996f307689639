package dispatcher

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMalformedCommand = errors.New("malformed command")
	ErrQueueFull        = errors.New("queue full")
	ErrClosed           = errors.New("dispatcher closed")
)

// Event is one host command. Lines read from the host fill Command and Args;
// in-process senders may attach a typed Payload instead.
type Event struct {
	Command   string
	Args      []string
	Payload   any
	Timestamp time.Time
}

// Arg returns the i-th argument or "".
func (e Event) Arg(i int) string {
	if i < 0 || i >= len(e.Args) {
		return ""
	}
	return e.Args[i]
}

// ParseLine reads ":COMMAND: arg1|arg2". The command is upper-cased and the
// arguments trimmed.
func ParseLine(line string) (Event, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ":") {
		return Event{}, fmt.Errorf("%w: %q", ErrMalformedCommand, line)
	}
	name, rest, found := strings.Cut(line[1:], ":")
	if !found || name == "" {
		return Event{}, fmt.Errorf("%w: %q", ErrMalformedCommand, line)
	}

	e := Event{Command: ":" + strings.ToUpper(name) + ":", Timestamp: time.Now()}
	if rest = strings.TrimSpace(rest); rest != "" {
		for _, a := range strings.Split(rest, "|") {
			e.Args = append(e.Args, strings.TrimSpace(a))
		}
	}
	return e, nil
}
