package coordtree

import (
	"maps"
	"sync"
)

// Property names published for components that connect to the fixture.
const (
	PropertyAddress          = "zkHost"
	PropertySkipAutoRecovery = "solrcloud.skip.autorecovery"
	PropertyHostPort         = "jetty.port"
)

// Properties is the configuration a fixture publishes while it is set up.
// It replaces process wide system properties: consumers receive the value
// explicitly and teardown clears it.
type Properties struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewProperties() *Properties {
	return &Properties{
		values: make(map[string]string),
	}
}

func (p *Properties) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.values[key] = value
}

func (p *Properties) Get(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	value, ok := p.values[key]
	return value, ok
}

// Clear removes the given keys, or every key if none are given.
func (p *Properties) Clear(keys ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(keys) == 0 {
		clear(p.values)
		return
	}

	for _, key := range keys {
		delete(p.values, key)
	}
}

// Snapshot returns a copy of all current values.
func (p *Properties) Snapshot() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return maps.Clone(p.values)
}

// Address returns the client address of the running fixture.
func (p *Properties) Address() string {
	value, _ := p.Get(PropertyAddress)
	return value
}

func (p *Properties) SkipAutoRecovery() bool {
	value, _ := p.Get(PropertySkipAutoRecovery)
	return value == "true"
}

func (p *Properties) HostPort() string {
	value, _ := p.Get(PropertyHostPort)
	return value
}
