package boardactions

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Menu is the open/closed state of a view's column dropdown. While an
// operation started from the menu is running the menu holds a suspend
// token and close requests from outside clicks are ignored.
type Menu struct {
	mu     sync.Mutex
	open   bool
	target primitive.ObjectID
	holds  int
}

// Open shows the menu for target.
func (m *Menu) Open(target primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	m.target = target
}

// RequestClose closes the menu unless an operation holds it. It reports
// whether the menu is now closed.
func (m *Menu) RequestClose() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holds > 0 {
		return false
	}
	m.open = false
	m.target = primitive.NilObjectID
	return true
}

// State returns whether the menu is open and for which column.
func (m *Menu) State() (bool, primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open, m.target
}

// Held reports whether any suspend token is outstanding.
func (m *Menu) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.holds > 0
}

// Suspend returns a token that keeps the menu open until released.
func (m *Menu) Suspend() *SuspendToken {
	m.mu.Lock()
	m.holds++
	m.mu.Unlock()
	return &SuspendToken{menu: m}
}

// SuspendToken is held by an operation that must not lose its menu.
type SuspendToken struct {
	menu *Menu
	once sync.Once
}

// Release gives the token back. Only the first call counts.
func (t *SuspendToken) Release() {
	t.release(false)
}

// ReleaseAndClose gives the token back and closes the menu if no other
// token is still held. It reports whether the menu was closed.
func (t *SuspendToken) ReleaseAndClose() bool {
	return t.release(true)
}

func (t *SuspendToken) release(closeLast bool) bool {
	closed := false
	t.once.Do(func() {
		m := t.menu
		m.mu.Lock()
		defer m.mu.Unlock()
		m.holds--
		if closeLast && m.holds == 0 {
			m.open = false
			m.target = primitive.NilObjectID
			closed = true
		}
	})
	return closed
}
