package checkout

import "fmt"

// State is one step of the checkout pipeline. The pipeline is linear:
// Received → Validated → StockReserved → Recorded → Committed, with
// Aborted reachable from any non-terminal state.
type State string

const (
	StateReceived      State = "received"
	StateValidated     State = "validated"
	StateStockReserved State = "stock_reserved"
	StateRecorded      State = "recorded"
	StateCommitted     State = "committed"
	StateAborted       State = "aborted"
)

var nextState = map[State]State{
	StateReceived:      StateValidated,
	StateValidated:     StateStockReserved,
	StateStockReserved: StateRecorded,
	StateRecorded:      StateCommitted,
}

func (s State) terminal() bool {
	return s == StateCommitted || s == StateAborted
}

// machine tracks pipeline progress for one checkout request.
type machine struct {
	state State
}

func newMachine() *machine {
	return &machine{state: StateReceived}
}

func (m *machine) State() State {
	return m.state
}

// advance moves to the next pipeline state, panicking on out-of-order
// transitions: those are programming errors, not runtime conditions.
func (m *machine) advance(to State) {
	if nextState[m.state] != to {
		panic(fmt.Sprintf("checkout: illegal transition %s -> %s", m.state, to))
	}
	m.state = to
}

// abort marks the terminal failure state; legal from any non-terminal state.
func (m *machine) abort() {
	if m.state.terminal() {
		panic(fmt.Sprintf("checkout: abort from terminal state %s", m.state))
	}
	m.state = StateAborted
}
