package activity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Type identifies what kind of activity this is
type Type string

const (
	TypeCommand  Type = "command"  // Text command received
	TypeMode     Type = "mode"     // Attention mode changed
	TypeReminder Type = "reminder" // Reminder fired
	TypeAction   Type = "action"   // Hardware pointed, objects recorded
	TypeError    Type = "error"    // Something went wrong
)

// Entry represents a single activity log entry
type Entry struct {
	Timestamp time.Time      `json:"ts"`
	Type      Type           `json:"type"`
	Summary   string         `json:"summary"`
	Source    string         `json:"source,omitempty"` // discord, repl, mcp
	Intent    string         `json:"intent,omitempty"` // parsed intent kind
	Reason    string         `json:"reason,omitempty"` // transition reason
	Data      map[string]any `json:"data,omitempty"`   // Structured details
}

// Log is an append-only JSONL activity log
type Log struct {
	path string
	mu   sync.Mutex
}

// New creates an activity logger under statePath/system
func New(statePath string) *Log {
	return &Log{
		path: filepath.Join(statePath, "system", "activity.jsonl"),
	}
}

// Path returns the log file path
func (l *Log) Path() string {
	return l.path
}

// Log appends an entry to the activity log
func (l *Log) Log(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Set timestamp if not provided
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// LogCommand logs an incoming text command
func (l *Log) LogCommand(text, source, intent string) error {
	return l.Log(Entry{
		Type:    TypeCommand,
		Summary: text,
		Source:  source,
		Intent:  intent,
	})
}

// LogError logs an error
func (l *Log) LogError(summary string, err error, data map[string]any) error {
	if data == nil {
		data = make(map[string]any)
	}
	data["error"] = err.Error()
	return l.Log(Entry{
		Type:    TypeError,
		Summary: summary,
		Data:    data,
	})
}

// Recent returns the last n entries
func (l *Log) Recent(n int) ([]Entry, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}

	if n <= 0 || n >= len(entries) {
		return entries, nil
	}
	return entries[len(entries)-n:], nil
}

// Search searches entries by text (in summary and data), newest first
func (l *Log) Search(query string, limit int) ([]Entry, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var result []Entry

	for i := len(entries) - 1; i >= 0 && len(result) < limit; i-- {
		e := entries[i]
		if strings.Contains(strings.ToLower(e.Summary), query) {
			result = append(result, e)
			continue
		}
		if e.Data != nil {
			dataJSON, _ := json.Marshal(e.Data)
			if strings.Contains(strings.ToLower(string(dataJSON)), query) {
				result = append(result, e)
			}
		}
	}

	return result, nil
}

// ByType returns entries of a specific type, newest first
func (l *Log) ByType(t Type, limit int) ([]Entry, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}

	var result []Entry
	for i := len(entries) - 1; i >= 0 && len(result) < limit; i-- {
		if entries[i].Type == t {
			result = append(result, entries[i])
		}
	}
	return result, nil
}

// readAll reads all entries from the log file
func (l *Log) readAll() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue // skip malformed entries
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
