package tui

import (
	"fmt"
	"sync"
	"time"
)

const defaultFlashTTL = 5 * time.Second

// Flash holds the single transient status-bar notice. A newer notice
// replaces the current one; expiry is checked on read.
type Flash struct {
	mu      sync.RWMutex
	message string
	expires time.Time
}

// Set stores a notice that expires after the given duration.
// A non-positive duration uses the default TTL.
func (f *Flash) Set(msg string, d time.Duration) {
	if d <= 0 {
		d = defaultFlashTTL
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
	f.expires = time.Now().Add(d)
}

// Setf formats and stores a notice with the default TTL.
func (f *Flash) Setf(format string, args ...any) {
	f.Set(fmt.Sprintf(format, args...), defaultFlashTTL)
}

// Get returns the current notice, or empty if expired.
func (f *Flash) Get() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if time.Now().After(f.expires) {
		return ""
	}
	return f.message
}
