// Package intent turns free-text commands into typed intents.
//
// An Intent is one of Find, Reminder, ModeSwitch or Chat. Each variant
// carries only its own fields, so a mode switch without a mode cannot be
// built.
package intent

import "github.com/vthunder/cube/internal/types"

// Kind names an intent variant on the wire
type Kind string

const (
	KindFind     Kind = "find"
	KindReminder Kind = "reminder"
	KindMode     Kind = "mode"
	KindChat     Kind = "chat"
)

// Intent is a parsed command. The set of implementations is closed.
type Intent interface {
	Kind() Kind
	isIntent()
}

// Find asks where an object was last seen
type Find struct {
	Item string
}

// Reminder schedules a notification. TimeText is resolved later so that
// "now" is read by whoever stores it.
type Reminder struct {
	TimeText    string
	Content     string
	Location    string
	RepeatDaily bool
}

// ModeSwitch forces an attention mode
type ModeSwitch struct {
	Mode types.Mode
}

// Chat is anything else; it is acknowledged but changes nothing
type Chat struct {
	Text string
}

func (Find) Kind() Kind       { return KindFind }
func (Reminder) Kind() Kind   { return KindReminder }
func (ModeSwitch) Kind() Kind { return KindMode }
func (Chat) Kind() Kind       { return KindChat }

func (Find) isIntent()       {}
func (Reminder) isIntent()   {}
func (ModeSwitch) isIntent() {}
func (Chat) isIntent()       {}
