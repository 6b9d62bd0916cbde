package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Mode is the device's attention state. Exactly one mode is active at a time.
type Mode string

const (
	ModeAmbient Mode = "ambient" // passive, breathing only
	ModeFocus   Mode = "focus"   // actively engaged with the user
)

// ParseMode converts a user-facing name to a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAmbient, ModeFocus:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid mode %q", s)
}

// ModeSnapshot records one transition attempt (including no-ops)
type ModeSnapshot struct {
	Mode      Mode      `json:"mode"`
	ChangedAt time.Time `json:"changed_at"`
	Reason    string    `json:"reason"`
}

// Reminder is an in-memory scheduled notification
type Reminder struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	RemindAt    time.Time `json:"remind_at"`
	Location    string    `json:"location,omitempty"`
	RepeatDaily bool      `json:"repeat_daily,omitempty"`
	Triggered   bool      `json:"triggered"`
}

// HardwareState is the actuator state reported by a hardware controller
type HardwareState struct {
	Mode        Mode    `json:"mode"`
	LaserOn     bool    `json:"laser_on"`
	PanAngle    float64 `json:"pan_angle"`
	TiltAngle   float64 `json:"tilt_angle"`
	BreathAngle float64 `json:"breath_angle"`
}

// ObjectMemory is one sighting of a named object at a location
type ObjectMemory struct {
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Detection is one object found in an image by a detector
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	BBox       [4]int  `json:"bbox"` // x1, y1, x2, y2
}

// EmotionProfile shapes the breathing servo for an emotion
type EmotionProfile struct {
	Duration float64 `json:"duration" yaml:"duration"` // seconds per breath cycle
	MinAngle float64 `json:"min_angle" yaml:"min_angle"`
	MaxAngle float64 `json:"max_angle" yaml:"max_angle"`
	Color    string  `json:"color" yaml:"color"`
}

// Speed returns the servo sweep rate in degrees per second
func (p EmotionProfile) Speed() float64 {
	if p.Duration <= 0 {
		return 0
	}
	return 2 * (p.MaxAngle - p.MinAngle) / p.Duration
}

// DefaultEmotion is the emotion the device boots with
const DefaultEmotion = "calm"

// DefaultEmotions returns the built-in emotion profiles (fresh copy)
func DefaultEmotions() map[string]EmotionProfile {
	return map[string]EmotionProfile{
		"calm":       {Duration: 4.0, MinAngle: 30, MaxAngle: 60, Color: "#4ECDC4"},
		"anxious":    {Duration: 2.0, MinAngle: 40, MaxAngle: 80, Color: "#FF6B6B"},
		"relaxed":    {Duration: 6.0, MinAngle: 20, MaxAngle: 50, Color: "#96CEB4"},
		"excited":    {Duration: 1.5, MinAngle: 50, MaxAngle: 90, Color: "#FFD166"},
		"deepSleep":  {Duration: 8.0, MinAngle: 10, MaxAngle: 40, Color: "#7B68EE"},
		"meditative": {Duration: 10.0, MinAngle: 15, MaxAngle: 45, Color: "#9370DB"},
	}
}

// ReminderView is the status projection of a reminder; times are ISO-8601
type ReminderView struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	RemindAt    string `json:"remind_at"`
	Location    string `json:"location,omitempty"`
	RepeatDaily bool   `json:"repeat_daily,omitempty"`
	Triggered   bool   `json:"triggered"`
}

// View projects a reminder for JSON output
func (r Reminder) View() ReminderView {
	return ReminderView{
		ID:          r.ID,
		Content:     r.Content,
		RemindAt:    FormatTime(r.RemindAt),
		Location:    r.Location,
		RepeatDaily: r.RepeatDaily,
		Triggered:   r.Triggered,
	}
}

// SystemStats is a resource sample of the controller process
type SystemStats struct {
	CPUPercent float64 `json:"cpu_percent"`
	RSSBytes   uint64  `json:"rss_bytes"`
	SampledAt  string  `json:"sampled_at"`
}

// Status is the read-only projection returned by the executive
type Status struct {
	Mode        Mode           `json:"mode"`
	Emotion     string         `json:"emotion"`
	LastMessage string         `json:"last_message"`
	Hardware    HardwareState  `json:"hardware"`
	Reminders   []ReminderView `json:"reminders"`
	System      *SystemStats   `json:"system,omitempty"`
}

// FormatTime renders a timestamp as ISO-8601 for the outer boundary
func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// MarshalJSON renders ChangedAt as ISO-8601 without monotonic noise
func (s ModeSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mode      Mode   `json:"mode"`
		ChangedAt string `json:"changed_at"`
		Reason    string `json:"reason"`
	}{s.Mode, FormatTime(s.ChangedAt), s.Reason})
}
