package pipeline

import "fmt"

// UnknownStepError is returned when a configured step key was never
// registered.
type UnknownStepError struct {
	Key string
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("unknown pipeline step %q", e.Key)
}

type registration struct {
	factory  Factory
	terminal bool
}

// Registry maps stable step keys to step factories. It is populated once at
// startup, before any run begins, and read-only thereafter, so concurrent
// runs may read it without synchronization.
type Registry struct {
	steps map[string]registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]registration)}
}

// Register associates a key with a step factory. Duplicate registration of
// the same key is a configuration error raised at startup, not at run time.
func (r *Registry) Register(key string, factory Factory) error {
	return r.register(key, factory, false)
}

// RegisterTerminal registers a step that fills the terminal persistence role.
// Every run-type configuration must enable exactly one terminal step, ordered
// last.
func (r *Registry) RegisterTerminal(key string, factory Factory) error {
	return r.register(key, factory, true)
}

func (r *Registry) register(key string, factory Factory, terminal bool) error {
	if key == "" {
		return fmt.Errorf("register pipeline step: empty key")
	}
	if factory == nil {
		return fmt.Errorf("register pipeline step %q: nil factory", key)
	}
	if _, exists := r.steps[key]; exists {
		return fmt.Errorf("register pipeline step %q: duplicate key", key)
	}
	r.steps[key] = registration{factory: factory, terminal: terminal}
	return nil
}

// MustRegister is Register that panics on error, for startup wiring.
func (r *Registry) MustRegister(key string, factory Factory) {
	if err := r.Register(key, factory); err != nil {
		panic(err)
	}
}

// MustRegisterTerminal is RegisterTerminal that panics on error.
func (r *Registry) MustRegisterTerminal(key string, factory Factory) {
	if err := r.RegisterTerminal(key, factory); err != nil {
		panic(err)
	}
}

// Create instantiates a step for the given key.
func (r *Registry) Create(key string) (Step, error) {
	reg, ok := r.steps[key]
	if !ok {
		return nil, &UnknownStepError{Key: key}
	}
	return reg.factory(), nil
}

// IsTerminal reports whether key is registered in the terminal persistence
// role.
func (r *Registry) IsTerminal(key string) bool {
	reg, ok := r.steps[key]
	return ok && reg.terminal
}

// Keys returns the registered step keys in unspecified order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.steps))
	for k := range r.steps {
		keys = append(keys, k)
	}
	return keys
}
