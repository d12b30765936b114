package loaders

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/charlesng35/metastore-admin/internal/form"
	"github.com/charlesng35/metastore-admin/internal/metastore"
)

var (
	// ErrLoaderExists indicates a loader with the same name is already registered.
	ErrLoaderExists = errors.New("loaders: loader already registered")
	// ErrInvalidLoader indicates a loader without a name or template.
	ErrInvalidLoader = errors.New("loaders: loader requires a name and a template")
)

// Registry holds the metastore loaders offered to admins, in registration order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	loaders map[string]metastore.Loader
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]metastore.Loader)}
}

// NewDefaultRegistry returns a registry holding the built-in loaders.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := r.RegisterJSON([]byte(builtinLoaders)); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds loaders. Every failing loader is reported; the others are kept.
func (r *Registry) Register(loaders ...metastore.Loader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs error
	for _, loader := range loaders {
		name := strings.TrimSpace(loader.Name)
		if name == "" || loader.Template.Field == nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: %q", ErrInvalidLoader, loader.Name))
			continue
		}
		if _, exists := r.loaders[name]; exists {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s", ErrLoaderExists, name))
			continue
		}
		loader.Name = name
		r.loaders[name] = loader
		r.order = append(r.order, name)
	}
	return errs
}

// RegisterJSON registers a JSON array of {name, template} loaders.
func (r *Registry) RegisterJSON(data []byte) error {
	var loaders []metastore.Loader
	if err := json.Unmarshal(data, &loaders); err != nil {
		return fmt.Errorf("loaders: decode: %w", err)
	}
	return r.Register(loaders...)
}

// RegisterFiles registers loaders from JSON files.
func (r *Registry) RegisterFiles(paths ...string) error {
	var errs error
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("loaders: read %s: %w", path, err))
			continue
		}
		if err := r.RegisterJSON(data); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	return errs
}

// Get returns the loader called name.
func (r *Registry) Get(name string) (metastore.Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loader, ok := r.loaders[name]
	return loader, ok
}

// List returns the loaders in registration order.
func (r *Registry) List() []metastore.Loader {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]metastore.Loader, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.loaders[name])
	}
	return out
}

// Validator returns a metastore validator over the registered loaders.
func (r *Registry) Validator() metastore.Validator {
	return metastore.NewValidator(r.List())
}

// DefaultParams returns the default params of the named loader.
func (r *Registry) DefaultParams(name string) (map[string]any, bool) {
	loader, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	params, _ := form.DefaultValue(loader.Template.Field).(map[string]any)
	return params, true
}
