package motivation

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vthunder/cube/internal/types"
)

// day is the repeat interval for daily reminders
const day = 24 * time.Hour

// Reminders keeps scheduled reminders sorted by RemindAt. Reminders live in
// memory only and are lost on restart.
type Reminders struct {
	mu    sync.Mutex
	items []*types.Reminder
}

// NewReminders creates an empty reminder engine
func NewReminders() *Reminders {
	return &Reminders{}
}

// Add stores a reminder and returns the stored copy (with an ID assigned
// if the caller left it empty)
func (r *Reminders) Add(rem types.Reminder) types.Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rem.ID == "" {
		rem.ID = uuid.NewString()
	}
	item := rem
	r.items = append(r.items, &item)
	r.sortLocked()
	return item
}

// Due fires every untriggered reminder with RemindAt <= now, earliest
// first. A fired one-shot reminder stays triggered forever; a daily
// reminder is moved forward whole days until it is after now and armed
// again. The returned copies show each reminder as it was when it fired.
func (r *Reminders) Due(now time.Time) []types.Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fired []types.Reminder
	for _, item := range r.items {
		if item.Triggered || item.RemindAt.After(now) {
			continue
		}
		item.Triggered = true
		fired = append(fired, *item)

		if item.RepeatDaily {
			item.RemindAt = item.RemindAt.Add(day)
			item.Triggered = false
		}
	}

	if len(fired) > 0 {
		r.sortLocked()
	}
	return fired
}

// List returns a copy of every reminder, fired or not
func (r *Reminders) List() []types.Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]types.Reminder, len(r.items))
	for i, item := range r.items {
		result[i] = *item
	}
	return result
}

// Remove deletes a reminder by ID and reports whether it existed
func (r *Reminders) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, item := range r.items {
		if item.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return true
		}
	}
	return false
}

// Count returns the number of stored reminders
func (r *Reminders) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// sortLocked restores ascending RemindAt order (must hold lock)
func (r *Reminders) sortLocked() {
	sort.SliceStable(r.items, func(i, j int) bool {
		return r.items[i].RemindAt.Before(r.items[j].RemindAt)
	})
}
