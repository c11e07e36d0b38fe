package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMachineHappyPath(t *testing.T) {
	m := newMachine()
	assert.Equal(t, StateReceived, m.State())

	m.advance(StateValidated)
	m.advance(StateStockReserved)
	m.advance(StateRecorded)
	m.advance(StateCommitted)
	assert.Equal(t, StateCommitted, m.State())
	assert.True(t, m.State().terminal())
}

func TestMachineAbortFromAnyNonTerminalState(t *testing.T) {
	steps := []State{StateValidated, StateStockReserved, StateRecorded}
	for i := 0; i <= len(steps); i++ {
		m := newMachine()
		for _, s := range steps[:i] {
			m.advance(s)
		}
		m.abort()
		assert.Equal(t, StateAborted, m.State())
	}
}

func TestMachineRejectsOutOfOrderTransitions(t *testing.T) {
	assert.Panics(t, func() {
		m := newMachine()
		m.advance(StateStockReserved)
	})
	assert.Panics(t, func() {
		m := newMachine()
		m.advance(StateValidated)
		m.advance(StateRecorded)
	})
	assert.Panics(t, func() {
		m := newMachine()
		m.advance(StateValidated)
		m.advance(StateValidated)
	})
}

func TestMachineTerminalStatesAreFinal(t *testing.T) {
	committed := newMachine()
	committed.advance(StateValidated)
	committed.advance(StateStockReserved)
	committed.advance(StateRecorded)
	committed.advance(StateCommitted)
	assert.Panics(t, func() { committed.abort() })
	assert.Panics(t, func() { committed.advance(StateValidated) })

	aborted := newMachine()
	aborted.abort()
	assert.Panics(t, func() { aborted.abort() })
}
