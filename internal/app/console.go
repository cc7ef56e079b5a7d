package app

import (
	"fmt"
	"io"
	"sync"
)

// ConsoleDisplay renders the capture UI as lines on a terminal. Only text
// the user needs is printed; button state changes are not.
type ConsoleDisplay struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleDisplay(out io.Writer) *ConsoleDisplay {
	return &ConsoleDisplay{out: out}
}

func (d *ConsoleDisplay) printf(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, format, args...)
}

func (d *ConsoleDisplay) SetSubmitEnabled(bool) {}
func (d *ConsoleDisplay) SetSubmitLabel(string) {}
func (d *ConsoleDisplay) HideStatus()           {}
func (d *ConsoleDisplay) ClearURLInput()        {}

func (d *ConsoleDisplay) ShowStatus(msg string, isError bool) {
	if isError {
		d.printf("✗ %s\n", msg)
		return
	}
	d.printf("%s\n", msg)
}

func (d *ConsoleDisplay) SetConnection(text string) {
	d.printf("API: %s\n", text)
}

func (d *ConsoleDisplay) SetURLPlaceholder(text string) {
	d.printf("%s\n", text)
}
