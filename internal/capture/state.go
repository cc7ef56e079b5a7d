package capture

import (
	"sync"
)

// State is a snapshot of everything the popup shows.
type State struct {
	SubmitEnabled bool   `json:"submit_enabled"`
	SubmitLabel   string `json:"submit_label"`
	Status        string `json:"status,omitempty"`
	StatusVisible bool   `json:"status_visible"`
	StatusIsError bool   `json:"status_is_error"`
	Connection    string `json:"connection"`
	// ClearInput goes up by one each time the URL input should be emptied.
	// Clients clear their input when it changes, never because of its value.
	ClearInput     uint64 `json:"clear_input"`
	URLPlaceholder string `json:"url_placeholder"`
}

// InitialState is what the popup shows before Load finishes.
func InitialState() State {
	return State{
		SubmitEnabled:  true,
		SubmitLabel:    LabelIdle,
		Connection:     "Checking...",
		URLPlaceholder: "Enter job page URL (optional)",
	}
}

// StateDisplay is an in-memory Display. Every change is pushed to
// subscribers; a subscriber that is not keeping up misses intermediate
// snapshots but always gets a later one.
type StateDisplay struct {
	mu    sync.Mutex
	state State
	subs  map[chan State]struct{}
}

func NewStateDisplay() *StateDisplay {
	return &StateDisplay{
		state: InitialState(),
		subs:  make(map[chan State]struct{}),
	}
}

// Snapshot returns the current state.
func (d *StateDisplay) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Subscribe returns a channel receiving state after each change, and a
// function that unsubscribes and closes it.
func (d *StateDisplay) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	d.mu.Lock()
	d.subs[ch] = struct{}{}
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, ch)
			d.mu.Unlock()
			close(ch)
		})
	}
}

func (d *StateDisplay) update(fn func(*State)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.state)
	for ch := range d.subs {
		// Drop a stale pending snapshot so the newest one always lands.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- d.state:
		default:
		}
	}
}

func (d *StateDisplay) SetSubmitEnabled(enabled bool) {
	d.update(func(s *State) { s.SubmitEnabled = enabled })
}

func (d *StateDisplay) SetSubmitLabel(label string) {
	d.update(func(s *State) { s.SubmitLabel = label })
}

func (d *StateDisplay) ShowStatus(msg string, isError bool) {
	d.update(func(s *State) {
		s.Status, s.StatusIsError, s.StatusVisible = msg, isError, true
	})
}

func (d *StateDisplay) HideStatus() {
	d.update(func(s *State) {
		s.Status, s.StatusIsError, s.StatusVisible = "", false, false
	})
}

func (d *StateDisplay) SetConnection(text string) {
	d.update(func(s *State) { s.Connection = text })
}

func (d *StateDisplay) ClearURLInput() {
	d.update(func(s *State) { s.ClearInput++ })
}

func (d *StateDisplay) SetURLPlaceholder(text string) {
	d.update(func(s *State) { s.URLPlaceholder = text })
}
