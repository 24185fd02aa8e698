package job

import "sync"

// Notices is the process-wide advisory channel. It carries informational
// messages that are not tied to a single job, such as the sample-substitution
// notice posted when a generation falls back on quota exhaustion.
type Notices struct {
	mu     sync.RWMutex
	latest string
}

// NewNotices creates an empty advisory board.
func NewNotices() *Notices {
	return &Notices{}
}

// Post replaces the current advisory message.
func (n *Notices) Post(message string) {
	n.mu.Lock()
	n.latest = message
	n.mu.Unlock()
}

// Latest returns the current advisory message, or empty when there is none.
func (n *Notices) Latest() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.latest
}

// Clear discards the current advisory message.
func (n *Notices) Clear() {
	n.mu.Lock()
	n.latest = ""
	n.mu.Unlock()
}
