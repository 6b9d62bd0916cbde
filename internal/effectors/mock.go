package effectors

import (
	"sync"

	"github.com/vthunder/cube/internal/logging"
	"github.com/vthunder/cube/internal/types"
)

// Command is one call recorded by MockHardware
type Command struct {
	Op   string
	Args []any
}

// MockHardware is an in-memory Hardware for development without a board
// and for tests. It records every command and can be told to fail.
type MockHardware struct {
	mu       sync.Mutex
	state    types.HardwareState
	commands []Command
	failures map[string]error // op -> error returned on every call
}

// NewMockHardware creates a mock at rest: ambient, laser off, centered
func NewMockHardware() *MockHardware {
	return &MockHardware{
		state: types.HardwareState{
			Mode:        types.ModeAmbient,
			BreathAngle: DefaultBreathAngle,
		},
		failures: make(map[string]error),
	}
}

// FailOn makes every later call of op return err (nil clears it)
func (m *MockHardware) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Commands returns a copy of the recorded commands
func (m *MockHardware) Commands() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Command, len(m.commands))
	copy(result, m.commands)
	return result
}

// record logs the command and returns the injected failure (must hold lock)
func (m *MockHardware) record(op string, args ...any) error {
	m.commands = append(m.commands, Command{Op: op, Args: args})
	if err := m.failures[op]; err != nil {
		return Fault(op, err)
	}
	logging.Debug("hardware", "%s %v", op, args)
	return nil
}

func (m *MockHardware) SetMode(mode types.Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("set_mode", mode); err != nil {
		return err
	}
	m.state.Mode = mode
	if mode == types.ModeAmbient {
		m.state.LaserOn = false
	}
	return nil
}

func (m *MockHardware) SetBreath(angle, speed float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("set_breath", angle, speed); err != nil {
		return err
	}
	m.state.BreathAngle = clamp(angle, BreathMin, BreathMax)
	return nil
}

func (m *MockHardware) MoveGimbal(pan, tilt float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("move_gimbal", pan, tilt); err != nil {
		return err
	}
	m.state.PanAngle = clamp(pan, PanMin, PanMax)
	m.state.TiltAngle = clamp(tilt, TiltMin, TiltMax)
	return nil
}

func (m *MockHardware) SetLaser(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("set_laser", enabled); err != nil {
		return err
	}
	m.state.LaserOn = enabled
	return nil
}

// State returns a copy of the actuator state
func (m *MockHardware) State() types.HardwareState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
