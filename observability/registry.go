package observability

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// The registry lets bus configuration name its observer ("noop", "slog", or
// anything registered by the embedding application before the bus is built).
var (
	mutex     sync.RWMutex
	observers = map[string]Observer{
		"noop": NoOpObserver{},
		"slog": NewSlogObserver(slog.Default()),
	}
)

// GetObserver resolves a named observer. Unknown names report the currently
// registered set to make configuration typos obvious.
func GetObserver(name string) (Observer, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	obs, exists := observers[name]
	if !exists {
		return nil, fmt.Errorf("unknown observer %q (registered: %v)", name, observerNames())
	}
	return obs, nil
}

// RegisterObserver adds or replaces a named observer. Call it before bus
// construction; resolution happens once, in New.
func RegisterObserver(name string, observer Observer) {
	mutex.Lock()
	defer mutex.Unlock()

	observers[name] = observer
}

// observerNames is called under mutex.
func observerNames() []string {
	names := make([]string, 0, len(observers))
	for name := range observers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
