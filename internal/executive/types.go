package executive

import (
	"context"
	"errors"
	"time"

	"github.com/vthunder/cube/internal/activity"
	"github.com/vthunder/cube/internal/clock"
	"github.com/vthunder/cube/internal/effectors"
	"github.com/vthunder/cube/internal/intent"
	"github.com/vthunder/cube/internal/senses"
	"github.com/vthunder/cube/internal/types"
)

var (
	// ErrUnknownEmotion is returned by SetEmotion for names with no profile
	ErrUnknownEmotion = errors.New("unknown emotion")
	// ErrNoDetector is returned by DetectAndRemember when no camera is wired
	ErrNoDetector = errors.New("no object detector configured")
)

// SpatialMemory stores where objects were last seen
type SpatialMemory interface {
	AddObject(ctx context.Context, obj types.ObjectMemory) error
	// LatestObject returns nil (or memory.ErrNotFound) when the object is unknown
	LatestObject(ctx context.Context, name string) (*types.ObjectMemory, error)
	History(ctx context.Context, name string, limit int) ([]types.ObjectMemory, error)
}

// Recorder keeps a journal of what the device did
type Recorder interface {
	Log(entry activity.Entry) error
}

// SystemSampler reports the controller's resource use
type SystemSampler interface {
	Sample() (types.SystemStats, error)
}

// Config holds the executive's collaborators and tuning
type Config struct {
	Hardware effectors.Hardware   // required
	Memory   SpatialMemory        // required
	Detector senses.Detector      // optional
	System   SystemSampler        // optional
	Clock    clock.Clock          // defaults to the wall clock
	Metrics  *Metrics             // optional
	Notify   func(message string) // optional, called when reminders fire
	Activity Recorder             // optional

	IdleTimeout        time.Duration
	LaserHold          time.Duration // 0 keeps the laser on until ClearLaser or ambient
	DetectionThreshold float64
	LocationHint       string
	Emotions           map[string]types.EmotionProfile
}

// Response is the result of one text command
type Response struct {
	Intent intent.Kind `json:"intent"`
	Result any         `json:"result"`
}

// ModeResult reports the mode after SetMode
type ModeResult struct {
	Mode   types.Mode `json:"mode"`
	Reason string     `json:"reason"`
}

// FindResult reports a "where is" lookup
type FindResult struct {
	Found   bool                `json:"found"`
	Message string              `json:"message"`
	Memory  *types.ObjectMemory `json:"memory,omitempty"`
}

// ReminderResult echoes a stored reminder
type ReminderResult struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	RemindAt    string `json:"remind_at"`
	Location    string `json:"location"`
	RepeatDaily bool   `json:"repeat_daily,omitempty"`
	Warning     string `json:"warning,omitempty"`
}

// ChatResult acknowledges a command that changes nothing
type ChatResult struct {
	Message string `json:"message"`
}

// DetectResult lists the detections that were recorded
type DetectResult struct {
	Detections []types.Detection `json:"detections"`
	Count      int               `json:"count"`
}

// EmotionResult reports the active emotion
type EmotionResult struct {
	Emotion string               `json:"emotion"`
	Profile types.EmotionProfile `json:"profile"`
}
