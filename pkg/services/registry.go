package services

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Descriptor is the static identity of one target service: registry key,
// display name, and the entry URL the session navigates to first.
type Descriptor struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

/*
Registry maps service keys to their adapters. Registration order is
preserved so "all services" fans out deterministically.
*/
type Registry struct {
	adapters *sync.Map

	mu   sync.Mutex
	keys []string
}

func NewRegistry() *Registry {
	return &Registry{
		adapters: new(sync.Map),
	}
}

func (registry *Registry) Register(adapter Adapter) {
	desc := adapter.Describe()
	log.Debug("registering service", "key", desc.Key, "name", desc.Name)

	if _, loaded := registry.adapters.LoadOrStore(desc.Key, adapter); loaded {
		registry.adapters.Store(desc.Key, adapter)
		return
	}

	registry.mu.Lock()
	registry.keys = append(registry.keys, desc.Key)
	registry.mu.Unlock()
}

func (registry *Registry) Lookup(key string) (Adapter, bool) {
	adapter, ok := registry.adapters.Load(key)
	if !ok {
		return nil, false
	}
	return adapter.(Adapter), true
}

// Keys returns the registered service keys in registration order.
func (registry *Registry) Keys() []string {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return append([]string(nil), registry.keys...)
}

// Descriptors returns every registered service's descriptor in registration
// order.
func (registry *Registry) Descriptors() []Descriptor {
	descriptors := make([]Descriptor, 0)

	for _, key := range registry.Keys() {
		if adapter, ok := registry.Lookup(key); ok {
			descriptors = append(descriptors, adapter.Describe())
		}
	}

	return descriptors
}

// DefaultRegistry wires the two production services with their default
// tuning.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(NewChatGPT(DefaultChatGPTConfig()))
	registry.Register(NewPerplexity(DefaultPerplexityConfig()))
	return registry
}
