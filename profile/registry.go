package profile

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
)

var (
	mu       sync.RWMutex
	registry = map[string]*Profile{}
)

// Register adds a built-in profile. It panics on an invalid or duplicate
// profile since registration happens from init.
func Register(p *Profile) {
	if err := p.Validate(); err != nil {
		panic(err)
	}
	mu.Lock()
	defer mu.Unlock()
	key := strings.ToLower(p.Name)
	if _, ok := registry[key]; ok {
		panic(fmt.Sprintf("profile %q registered twice", p.Name))
	}
	registry[key] = p
}

// Lookup returns the built-in profile with the given name.
func Lookup(name string) (*Profile, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := registry[strings.ToLower(name)]
	return p, ok
}

// Names lists the registered profile names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for _, p := range registry {
		out = append(out, p.Name)
	}
	slices.Sort(out)
	return out
}

// Resolve returns a built-in profile by name, or loads nameOrPath as a
// profile file when no built-in matches and the file exists.
func Resolve(nameOrPath string) (*Profile, error) {
	if p, ok := Lookup(nameOrPath); ok {
		return p, nil
	}
	if _, err := os.Stat(nameOrPath); err == nil {
		return LoadFile(nameOrPath)
	}
	return nil, fmt.Errorf("unknown profile %q (built-in: %s)", nameOrPath, strings.Join(Names(), ", "))
}
