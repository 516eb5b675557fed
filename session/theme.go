package session

import "sync"

// Theme holds the dark-mode preference of the current user.
type Theme struct {
	mu   sync.RWMutex
	dark bool
}

func NewTheme(dark bool) *Theme {
	return &Theme{dark: dark}
}

func (t *Theme) Dark() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dark
}

func (t *Theme) Set(dark bool) {
	t.mu.Lock()
	t.dark = dark
	t.mu.Unlock()
}

// Toggle flips the preference and returns the new value.
func (t *Theme) Toggle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dark = !t.dark
	return t.dark
}
