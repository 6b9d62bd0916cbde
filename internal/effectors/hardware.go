package effectors

import (
	"fmt"

	"github.com/vthunder/cube/internal/types"
)

// Physical limits of the actuators, in degrees
const (
	PanMin    = -90.0
	PanMax    = 90.0
	TiltMin   = -45.0
	TiltMax   = 45.0
	BreathMin = 0.0
	BreathMax = 180.0

	DefaultBreathAngle = 30.0
)

// Hardware drives the cube's actuators: the breathing servo, the gimbal
// and the laser pointer. Calls are synchronous and fast; implementations
// clamp angles to the physical ranges above.
type Hardware interface {
	SetMode(mode types.Mode) error
	SetBreath(angle, speed float64) error
	MoveGimbal(pan, tilt float64) error
	SetLaser(enabled bool) error
	State() types.HardwareState
}

// HardwareFaultError reports that an actuator command failed
type HardwareFaultError struct {
	Op  string // set_mode, set_breath, move_gimbal, set_laser
	Err error
}

func (e *HardwareFaultError) Error() string {
	return fmt.Sprintf("hardware fault in %s: %v", e.Op, e.Err)
}

func (e *HardwareFaultError) Unwrap() error {
	return e.Err
}

// Fault wraps err as a HardwareFaultError (nil stays nil)
func Fault(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*HardwareFaultError); ok {
		return err
	}
	return &HardwareFaultError{Op: op, Err: err}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
