package backtest

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownSetup is returned for a setup name that was never registered
var ErrUnknownSetup = errors.New("unknown setup")

// UnknownError names the unrecognised value
type UnknownError struct {
	Kind string
	Name string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown %s: %q", e.Kind, e.Name)
}

func (e *UnknownError) Is(target error) bool {
	return e.Kind == "setup" && target == ErrUnknownSetup
}

// SetupFactory returns a setup with its default parameters
type SetupFactory func() Setup

var (
	registry     = make(map[string]SetupFactory)
	registryLock sync.RWMutex
)

// Register adds a setup under name, replacing any previous one
func Register(name string, factory SetupFactory) {
	registryLock.Lock()
	defer registryLock.Unlock()
	registry[name] = factory
}

// NewSetup returns the default setup registered under name
func NewSetup(name string) (Setup, error) {
	registryLock.RLock()
	factory, ok := registry[name]
	registryLock.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w (available: %v)", &UnknownError{Kind: "setup", Name: name}, Setups())
	}
	return factory(), nil
}

// Setups lists the registered names, sorted
func Setups() []string {
	registryLock.RLock()
	defer registryLock.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("ifr", func() Setup { return DefaultIFRSetup() })
	Register("123", func() Setup { return DefaultSetup123() })
	Register("maxmin", func() Setup { return DefaultMaxMinSetup() })
}
