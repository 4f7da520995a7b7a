package flow

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// State is a step of a purchase or submission attempt.
type State string

const (
	StateIdle                 State = "idle"
	StateConfirmingWallet     State = "confirming-wallet"
	StateAwaitingConfirmation State = "awaiting-confirmation"
	StateConfirmed            State = "confirmed"
	StateFailed               State = "failed"
)

var transitions = map[State][]State{
	StateIdle:                 {StateConfirmingWallet, StateFailed},
	StateConfirmingWallet:     {StateAwaitingConfirmation, StateFailed},
	StateAwaitingConfirmation: {StateConfirmed, StateFailed},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// Machine tracks one attempt. Attempts are not resumable: once terminal or
// abandoned, a Machine accepts no further transitions.
type Machine struct {
	kind   string
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	started   bool
	abandoned bool
	cancel    context.CancelFunc
}

func NewMachine(kind string, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{kind: kind, logger: logger, state: StateIdle}
}

// Start marks the attempt as running and returns a context that Abandon cancels.
func (m *Machine) Start(ctx context.Context) (context.Context, context.CancelFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.abandoned {
		return nil, nil, ErrAbandoned
	}
	if m.started {
		return nil, nil, ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.started = true
	m.cancel = cancel
	return runCtx, cancel, nil
}

// Transition moves to next if the table allows it.
func (m *Machine) Transition(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.abandoned {
		return ErrAbandoned
	}
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			m.logger.Info("flow transition",
				zap.String("flow", m.kind),
				zap.String("from", string(m.state)),
				zap.String("to", string(next)),
			)
			m.state = next
			return nil
		}
	}
	return fmt.Errorf("%s: transition %s -> %s not allowed", m.kind, m.state, next)
}

// Abandon stops the attempt. An in-flight wallet prompt or confirmation wait
// is cancelled; anything already broadcast stays on the ledger.
func (m *Machine) Abandon() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.abandoned || m.state.Terminal() {
		return
	}
	m.abandoned = true
	if m.cancel != nil {
		m.cancel()
	}
	m.logger.Info("flow abandoned", zap.String("flow", m.kind), zap.String("state", string(m.state)))
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Abandoned() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.abandoned
}
