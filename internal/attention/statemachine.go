package attention

import (
	"sync"
	"time"

	"github.com/vthunder/cube/internal/clock"
	"github.com/vthunder/cube/internal/types"
)

// Event names understood by OnEvent
const (
	EventWakeWord      = "wake_word"
	EventFindRequest   = "find_request"
	EventReminderDue   = "reminder_due"
	EventTaskCompleted = "task_completed"
	EventIdleTimeout   = "idle_timeout"
	EventSwitchAmbient = "switch_ambient"
)

// Reasons reported on snapshots that are not transitions
const (
	ReasonNoChange = "no_change"
	ReasonActive   = "active"
)

// DefaultIdleTimeout is how long FOCUS lasts without a new transition
const DefaultIdleTimeout = 30 * time.Second

// transitions lists, per mode, the events that flip to the other mode
var transitions = map[types.Mode]map[string]types.Mode{
	types.ModeAmbient: {
		EventWakeWord:    types.ModeFocus,
		EventFindRequest: types.ModeFocus,
		EventReminderDue: types.ModeFocus,
	},
	types.ModeFocus: {
		EventTaskCompleted: types.ModeAmbient,
		EventIdleTimeout:   types.ModeAmbient,
		EventSwitchAmbient: types.ModeAmbient,
	},
}

// StateMachine tracks the AMBIENT/FOCUS attention mode
type StateMachine struct {
	mu          sync.RWMutex
	clock       clock.Clock
	mode        types.Mode
	changedAt   time.Time
	reason      string
	idleTimeout time.Duration
}

// New creates a state machine in AMBIENT. idleTimeout <= 0 uses the default.
func New(clk clock.Clock, idleTimeout time.Duration) *StateMachine {
	if clk == nil {
		clk = clock.Real()
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &StateMachine{
		clock:       clk,
		mode:        types.ModeAmbient,
		changedAt:   clk.Now(),
		reason:      "startup",
		idleTimeout: idleTimeout,
	}
}

// Switch forces the mode regardless of the current one. Switching to the
// current mode still restamps changedAt and reason.
func (s *StateMachine) Switch(mode types.Mode, reason string) types.ModeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switchLocked(mode, reason)
}

func (s *StateMachine) switchLocked(mode types.Mode, reason string) types.ModeSnapshot {
	s.mode = mode
	s.changedAt = s.clock.Now()
	s.reason = reason
	return types.ModeSnapshot{Mode: s.mode, ChangedAt: s.changedAt, Reason: reason}
}

// OnEvent applies the transition table. Unknown events, or events that do
// not apply to the current mode, leave the state alone.
func (s *StateMachine) OnEvent(event string) types.ModeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if next, ok := transitions[s.mode][event]; ok {
		return s.switchLocked(next, event)
	}
	return types.ModeSnapshot{Mode: s.mode, ChangedAt: s.changedAt, Reason: ReasonNoChange}
}

// CheckIdleTimeout reverts FOCUS to AMBIENT once the idle timeout has
// elapsed since the last transition. Otherwise it returns the current state
// with reason "active", including when the mode is already AMBIENT.
func (s *StateMachine) CheckIdleTimeout(now time.Time) types.ModeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == types.ModeFocus && now.Sub(s.changedAt) >= s.idleTimeout {
		return s.switchLocked(types.ModeAmbient, EventIdleTimeout)
	}
	return types.ModeSnapshot{Mode: s.mode, ChangedAt: s.changedAt, Reason: ReasonActive}
}

// Mode returns the current mode
func (s *StateMachine) Mode() types.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Snapshot returns the last recorded transition
func (s *StateMachine) Snapshot() types.ModeSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.ModeSnapshot{Mode: s.mode, ChangedAt: s.changedAt, Reason: s.reason}
}

// IdleTimeout returns the configured idle timeout
func (s *StateMachine) IdleTimeout() time.Duration {
	return s.idleTimeout
}
