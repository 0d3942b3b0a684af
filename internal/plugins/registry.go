package plugins

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vogiaan1904/spacehost/pkg/logger"
)

var (
	ErrPluginNotFound    = errors.New("plugin not found")
	ErrPluginRegistered  = errors.New("plugin already registered")
	ErrUnknownPluginKind = errors.New("unknown plugin kind")
)

// Registry holds extension factories by kind and name.
type Registry struct {
	mu        sync.RWMutex
	l         logger.Logger
	factories map[Kind]map[string]Factory
}

func NewRegistry(l logger.Logger) *Registry {
	return &Registry{
		l: l,
		factories: map[Kind]map[string]Factory{
			KindSpeech:      make(map[string]Factory),
			KindIdleMonitor: make(map[string]Factory),
		},
	}
}

func (r *Registry) Register(kind Kind, name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byName, exists := r.factories[kind]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownPluginKind, kind)
	}

	if _, exists := byName[name]; exists {
		return fmt.Errorf("%w: %s.%s", ErrPluginRegistered, kind, name)
	}

	byName[name] = factory
	r.l.Debugf(context.Background(), "plugins.Registry.Register: %s.%s", kind, name)
	return nil
}

func (r *Registry) Has(kind Kind, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[kind][name]
	return ok
}

// Build creates a fresh extension instance for one attachment.
func (r *Registry) Build(kind Kind, name string, ac AttachContext) (Extension, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind][name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrPluginNotFound, kind, name)
	}

	ext, err := factory(ac)
	if err != nil {
		return nil, fmt.Errorf("build plugin %s.%s: %w", kind, name, err)
	}
	if ext.Kind() != kind {
		return nil, fmt.Errorf("plugin %s.%s reports kind %s", kind, name, ext.Kind())
	}

	return ext, nil
}
