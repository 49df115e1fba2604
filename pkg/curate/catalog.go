package curate

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-curate/pkg/curate/model"
)

// Factory rebuilds a step from the parameters stored in a workflow file.
type Factory func(params model.Params) (Step, error)

type entry struct {
	source  []byte
	factory Factory
}

// Catalog maps step names to their implementation source and factory. The
// source feeds the source hash of every workflow using the step.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]entry)}
}

// Register adds a step. A nil factory registers a step that can run but can not
// be loaded back from a file.
func (c *Catalog) Register(name string, source []byte, factory Factory) error {
	if name == "" {
		return errors.New("step name must be set")
	}
	if len(source) == 0 {
		return errors.Errorf("step %s: source must be set", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[name]; ok {
		return errors.Errorf("step %s already registered", name)
	}
	c.entries[name] = entry{source: append([]byte(nil), source...), factory: factory}
	return nil
}

// MustRegister is Register for package initialisation. It panics on error.
func (c *Catalog) MustRegister(name string, source []byte, factory Factory) {
	if err := c.Register(name, source, factory); err != nil {
		panic(err)
	}
}

// Names returns the registered step names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source returns the implementation source recorded for name.
func (c *Catalog) Source(name string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownStep, name)
	}
	return e.source, nil
}

// Loadable reports whether name can be rebuilt from a workflow file.
func (c *Catalog) Loadable(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	return ok && e.factory != nil
}

// Build constructs the step name from params.
func (c *Catalog) Build(name string, params model.Params) (Step, error) {
	c.mu.RLock()
	e, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrUnknownStep, name)
	}
	if e.factory == nil {
		return nil, errors.Wrap(ErrNotSerializable, name)
	}
	step, err := e.factory(params)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to build %s", name)
	}
	if step.Name() != name {
		return nil, errors.Errorf("factory for %s built %s", name, step.Name())
	}
	return step, nil
}
