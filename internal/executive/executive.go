package executive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vthunder/cube/internal/activity"
	"github.com/vthunder/cube/internal/attention"
	"github.com/vthunder/cube/internal/clock"
	"github.com/vthunder/cube/internal/effectors"
	"github.com/vthunder/cube/internal/intent"
	"github.com/vthunder/cube/internal/logging"
	"github.com/vthunder/cube/internal/memory"
	"github.com/vthunder/cube/internal/motivation"
	"github.com/vthunder/cube/internal/senses"
	"github.com/vthunder/cube/internal/types"
)

// Gimbal aim used when pointing at a remembered object
const (
	findPan  = 15.0
	findTilt = -5.0
)

const (
	DefaultDetectionThreshold = 0.35
	DefaultLocationHint       = "桌面区域"
	DefaultHistoryLimit       = 10

	startupMessage = "系统已启动"
)

// Executive owns the attention state machine and the reminder engine and
// turns commands into hardware actions. Every public method holds one
// mutex, so callers on any goroutine see a consistent device.
type Executive struct {
	mu sync.Mutex

	clock     clock.Clock
	attention *attention.StateMachine
	reminders *motivation.Reminders
	hardware  effectors.Hardware
	memory    SpatialMemory
	detector  senses.Detector
	system    SystemSampler
	metrics   *Metrics
	notify    func(string)
	activity  Recorder

	emotions  map[string]types.EmotionProfile
	emotion   string
	message   string
	threshold float64
	location  string

	laserHold  time.Duration
	laserOn    bool
	laserOffAt time.Time
}

// New creates an executive in AMBIENT with the default emotion
func New(cfg Config) (*Executive, error) {
	if cfg.Hardware == nil {
		return nil, errors.New("executive: hardware is required")
	}
	if cfg.Memory == nil {
		return nil, errors.New("executive: spatial memory is required")
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	threshold := cfg.DetectionThreshold
	if threshold <= 0 {
		threshold = DefaultDetectionThreshold
	}
	location := cfg.LocationHint
	if location == "" {
		location = DefaultLocationHint
	}
	emotions := types.DefaultEmotions()
	for name, profile := range cfg.Emotions {
		emotions[name] = profile
	}

	e := &Executive{
		clock:     clk,
		attention: attention.New(clk, cfg.IdleTimeout),
		reminders: motivation.NewReminders(),
		hardware:  cfg.Hardware,
		memory:    cfg.Memory,
		system:    cfg.System,
		metrics:   cfg.Metrics,
		notify:    cfg.Notify,
		activity:  cfg.Activity,
		emotions:  emotions,
		emotion:   types.DefaultEmotion,
		message:   startupMessage,
		threshold: threshold,
		location:  location,
		detector:  cfg.Detector,
		laserHold: cfg.LaserHold,
	}
	return e, nil
}

// record appends to the activity journal (must hold lock)
func (e *Executive) record(entry activity.Entry) {
	if e.activity == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = e.clock.Now()
	}
	if err := e.activity.Log(entry); err != nil {
		logging.Debug("executive", "activity log failed: %v", err)
	}
}

// faults collects hardware errors from one operation
type faults struct {
	errs []error
	e    *Executive
}

func (e *Executive) newFaults() *faults {
	return &faults{e: e}
}

func (f *faults) add(err error) {
	if err == nil {
		return
	}
	op := "unknown"
	var fault *effectors.HardwareFaultError
	if errors.As(err, &fault) {
		op = fault.Op
	}
	f.e.metrics.observeFault(op)
	logging.Warn("executive", "%v", err)
	f.e.record(activity.Entry{
		Type:    activity.TypeError,
		Summary: "hardware fault",
		Data:    map[string]any{"op": op, "error": err.Error()},
	})
	f.errs = append(f.errs, err)
}

func (f *faults) err() error {
	return errors.Join(f.errs...)
}

// SetMode forces the attention mode and drives the hardware to match.
// The mode is committed before any hardware command is issued, so a
// hardware fault is returned alongside an already-changed mode.
func (e *Executive) SetMode(mode types.Mode, reason string) (ModeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f := e.newFaults()
	result := e.setModeLocked(mode, reason, f)
	return result, f.err()
}

func (e *Executive) setModeLocked(mode types.Mode, reason string, f *faults) ModeResult {
	if reason == "" {
		reason = "manual"
	}
	snap := e.attention.Switch(mode, reason)
	e.metrics.observeTransition(string(snap.Mode), snap.Reason)
	logging.Debug("executive", "Mode -> %s (%s)", snap.Mode, snap.Reason)
	e.record(activity.Entry{Type: activity.TypeMode, Summary: string(snap.Mode), Reason: snap.Reason})

	f.add(e.hardware.SetMode(mode))
	if mode == types.ModeAmbient {
		e.laserOffLocked(f)
	}
	return ModeResult{Mode: snap.Mode, Reason: snap.Reason}
}

func (e *Executive) laserOffLocked(f *faults) {
	err := e.hardware.SetLaser(false)
	f.add(err)
	if err == nil {
		e.laserOn = false
		e.laserOffAt = time.Time{}
	}
}

// ProcessText parses a free-text command and acts on it
func (e *Executive) ProcessText(ctx context.Context, text string) (Response, error) {
	in := intent.Parse(text)
	logging.Debug("executive", "Intent %s from %q", in.Kind(), logging.Truncate(text, 60))
	return e.ProcessIntent(ctx, in)
}

// ProcessIntent acts on an already parsed intent. A nil intent is chat.
func (e *Executive) ProcessIntent(ctx context.Context, in intent.Intent) (Response, error) {
	if in == nil {
		in = intent.Chat{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	f := e.newFaults()
	resp := Response{Intent: in.Kind()}
	e.record(activity.Entry{Type: activity.TypeCommand, Summary: describe(in), Intent: string(in.Kind())})

	switch v := in.(type) {
	case intent.Find:
		result, err := e.findLocked(ctx, v.Item, f)
		if err != nil {
			return resp, err
		}
		resp.Result = result

	case intent.Reminder:
		resp.Result = e.addReminderLocked(v.TimeText, v.Content, v.Location, v.RepeatDaily)

	case intent.ModeSwitch:
		resp.Result = e.setModeLocked(v.Mode, "voice_command", f)
		if v.Mode == types.ModeFocus {
			e.message = "已切换到左脑模式"
		} else {
			e.message = "已切换到右脑模式"
		}

	default:
		resp.Intent = intent.KindChat
		e.message = "我在，已收到你的指令。"
		resp.Result = ChatResult{Message: e.message}
	}

	return resp, f.err()
}

// FindObject switches to FOCUS and points the laser at the object's last
// known location, if there is one.
func (e *Executive) FindObject(ctx context.Context, name string) (FindResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f := e.newFaults()
	result, err := e.findLocked(ctx, name, f)
	if err != nil {
		return result, err
	}
	return result, f.err()
}

func (e *Executive) findLocked(ctx context.Context, name string, f *faults) (FindResult, error) {
	e.setModeLocked(types.ModeFocus, attention.EventFindRequest, f)

	latest, err := e.memory.LatestObject(ctx, name)
	if err != nil && !errors.Is(err, memory.ErrNotFound) {
		return FindResult{}, fmt.Errorf("failed to look up %q: %w", name, err)
	}
	if latest == nil {
		e.message = fmt.Sprintf("没有找到%s的位置信息。", name)
		return FindResult{Found: false, Message: e.message}, nil
	}

	f.add(e.hardware.MoveGimbal(findPan, findTilt))
	if err := e.hardware.SetLaser(true); err != nil {
		f.add(err)
	} else {
		e.laserOn = true
		if e.laserHold > 0 {
			e.laserOffAt = e.clock.Now().Add(e.laserHold)
		}
	}

	e.message = fmt.Sprintf("%s 在 %s。", name, latest.Location)
	e.record(activity.Entry{
		Type:    activity.TypeAction,
		Summary: "pointed at " + name,
		Data:    map[string]any{"object": name, "location": latest.Location},
	})
	return FindResult{Found: true, Message: e.message, Memory: latest}, nil
}

// AddReminder schedules a reminder from spoken time text. Unparseable time
// text falls back to the default hour and is reported as a warning.
func (e *Executive) AddReminder(timeText, content, location string, repeatDaily bool) ReminderResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addReminderLocked(timeText, content, location, repeatDaily)
}

func (e *Executive) addReminderLocked(timeText, content, location string, repeatDaily bool) ReminderResult {
	content = strings.TrimSpace(content)
	if content == "" {
		content = intent.DefaultReminderContent
	}

	at, warning := intent.ParseReminderTime(e.clock.Now(), timeText)
	stored := e.reminders.Add(types.Reminder{
		Content:     content,
		RemindAt:    at,
		Location:    location,
		RepeatDaily: repeatDaily,
	})

	e.message = fmt.Sprintf("已设置提醒：%s 提醒 %s", timeText, content)
	logging.Info("executive", "Reminder %s at %s", logging.Truncate(content, 40), types.FormatTime(at))

	result := ReminderResult{
		ID:          stored.ID,
		Content:     stored.Content,
		RemindAt:    types.FormatTime(stored.RemindAt),
		Location:    stored.Location,
		RepeatDaily: stored.RepeatDaily,
	}
	if warning != nil {
		logging.Warn("executive", "%v", warning)
		result.Warning = warning.Error()
	}
	return result
}

// RemoveReminder deletes a reminder by ID
func (e *Executive) RemoveReminder(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reminders.Remove(id)
}

// Tick fires due reminders, applies the idle timeout and releases the
// laser once its hold expires. It returns the resulting status.
func (e *Executive) Tick(ctx context.Context) (types.Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f := e.newFaults()
	now := e.clock.Now()

	if due := e.reminders.Due(now); len(due) > 0 {
		e.setModeLocked(types.ModeFocus, attention.EventReminderDue, f)
		parts := make([]string, len(due))
		for i, r := range due {
			parts[i] = "提醒：" + r.Content
			e.record(activity.Entry{
				Type:    activity.TypeReminder,
				Summary: r.Content,
				Data:    map[string]any{"id": r.ID, "remind_at": types.FormatTime(r.RemindAt)},
			})
		}
		e.message = strings.Join(parts, "；")
		e.metrics.observeReminders(len(due))
		logging.Info("executive", "%d reminder(s) due", len(due))
		if e.notify != nil {
			e.notify(e.message)
		}
	}

	snap := e.attention.CheckIdleTimeout(e.clock.Now())
	if snap.Reason == attention.EventIdleTimeout {
		e.metrics.observeTransition(string(snap.Mode), snap.Reason)
		logging.Debug("executive", "Idle timeout, back to ambient")
		e.record(activity.Entry{Type: activity.TypeMode, Summary: string(snap.Mode), Reason: snap.Reason})
		f.add(e.hardware.SetMode(types.ModeAmbient))
		e.laserOffLocked(f)
	}

	if e.laserOn && !e.laserOffAt.IsZero() && !e.clock.Now().Before(e.laserOffAt) {
		e.laserOffLocked(f)
	}

	return e.statusLocked(), f.err()
}

// ClearLaser turns the laser off now
func (e *Executive) ClearLaser() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f := e.newFaults()
	e.laserOffLocked(f)
	return f.err()
}

// SetEmotion changes the breathing pattern
func (e *Executive) SetEmotion(name string) (EmotionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	profile, ok := e.emotions[name]
	if !ok {
		return EmotionResult{}, fmt.Errorf("%w: %q", ErrUnknownEmotion, name)
	}
	e.emotion = name

	f := e.newFaults()
	f.add(e.hardware.SetBreath(profile.MinAngle, profile.Speed()))
	return EmotionResult{Emotion: name, Profile: profile}, f.err()
}

// Emotions returns a copy of the known emotion profiles
func (e *Executive) Emotions() map[string]types.EmotionProfile {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make(map[string]types.EmotionProfile, len(e.emotions))
	for name, p := range e.emotions {
		result[name] = p
	}
	return result
}

// RememberObject records that name was seen at location
func (e *Executive) RememberObject(ctx context.Context, name, location string, confidence float64) (types.ObjectMemory, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj := types.ObjectMemory{
		Name:       strings.TrimSpace(name),
		Location:   location,
		Confidence: confidence,
		Timestamp:  e.clock.Now(),
	}
	if err := e.memory.AddObject(ctx, obj); err != nil {
		return types.ObjectMemory{}, fmt.Errorf("failed to remember %q: %w", name, err)
	}
	return obj, nil
}

// History returns past sightings of name, newest first
func (e *Executive) History(ctx context.Context, name string, limit int) ([]types.ObjectMemory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.memory.History(ctx, name, limit)
}

// DetectAndRemember runs the detector on an image and records every
// detection at or above the confidence threshold at locationHint.
func (e *Executive) DetectAndRemember(ctx context.Context, imagePath, locationHint string) (DetectResult, error) {
	if e.detector == nil {
		return DetectResult{}, ErrNoDetector
	}

	// Detection is slow; run it before taking the lock
	detections, err := e.detector.Detect(ctx, imagePath)
	if err != nil {
		return DetectResult{}, fmt.Errorf("detection failed: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if locationHint == "" {
		locationHint = e.location
	}

	accepted := []types.Detection{}
	now := e.clock.Now()
	for _, det := range detections {
		if det.Confidence < e.threshold {
			continue
		}
		obj := types.ObjectMemory{
			Name:       det.Label,
			Location:   locationHint,
			Confidence: det.Confidence,
			Timestamp:  now,
		}
		if err := e.memory.AddObject(ctx, obj); err != nil {
			return DetectResult{}, fmt.Errorf("failed to remember %q: %w", det.Label, err)
		}
		accepted = append(accepted, det)
	}

	e.message = fmt.Sprintf("识别完成，共记录 %d 个目标。", len(accepted))
	e.record(activity.Entry{
		Type:    activity.TypeAction,
		Summary: "recorded detections",
		Data:    map[string]any{"image": imagePath, "count": len(accepted), "location": locationHint},
	})
	return DetectResult{Detections: accepted, Count: len(accepted)}, nil
}

// Mode returns the current attention mode
func (e *Executive) Mode() types.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attention.Mode()
}

// Snapshot returns the last attention transition
func (e *Executive) Snapshot() types.ModeSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attention.Snapshot()
}

// Status returns a read-only view of the device
func (e *Executive) Status() types.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

func (e *Executive) statusLocked() types.Status {
	list := e.reminders.List()
	views := make([]types.ReminderView, len(list))
	for i, r := range list {
		views[i] = r.View()
	}

	status := types.Status{
		Mode:        e.attention.Mode(),
		Emotion:     e.emotion,
		LastMessage: e.message,
		Hardware:    e.hardware.State(),
		Reminders:   views,
	}

	if e.system != nil {
		if stats, err := e.system.Sample(); err != nil {
			logging.Debug("executive", "system sample failed: %v", err)
		} else {
			status.System = &stats
		}
	}
	return status
}

// describe summarizes an intent for the activity journal
func describe(in intent.Intent) string {
	switch v := in.(type) {
	case intent.Find:
		return "find " + v.Item
	case intent.Reminder:
		return strings.TrimSpace(v.TimeText + " " + v.Content)
	case intent.ModeSwitch:
		return "switch to " + string(v.Mode)
	case intent.Chat:
		return v.Text
	}
	return string(in.Kind())
}
