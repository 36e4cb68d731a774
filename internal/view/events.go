package view

import (
	"slices"
	"sync"
)

// Field is an in-memory QueryInput. Set stores the new value and notifies
// every listener.
type Field struct {
	mu        sync.Mutex
	value     string
	listeners []func(string)
}

func (f *Field) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *Field) OnInput(fn func(value string)) {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}

// Set changes the value. Listeners run even when the value is unchanged.
func (f *Field) Set(value string) {
	f.mu.Lock()
	f.value = value
	listeners := slices.Clone(f.listeners)
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(value)
	}
}

// Button is an in-memory Trigger.
type Button struct {
	mu        sync.Mutex
	listeners []func()
}

func (b *Button) OnActivate(fn func()) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

// Press notifies every listener.
func (b *Button) Press() {
	b.mu.Lock()
	listeners := slices.Clone(b.listeners)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
