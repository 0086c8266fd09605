// Package community holds the allow-list of geographic areas whose records
// are recovered by the community fallback.
package community

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/censo-link/internal/normalize"
)

// Registry is a set of normalized community names. It is read-only once built.
type Registry struct {
	names  map[string]bool
	expand bool
}

// New builds a registry from raw names. Names that normalize to the empty
// string are ignored. With expand set, Matches also tests the localities
// libpostal extracts from the raw value (only in builds tagged postal).
func New(names []string, expand bool) *Registry {
	r := &Registry{names: make(map[string]bool, len(names)), expand: expand}
	for _, n := range names {
		if key := normalize.Name(n); key != "" {
			r.names[key] = true
		}
	}
	return r
}

// Load reads one community name per line from path.
func Load(path string, expand bool) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open communities file: %w", err)
	}
	defer f.Close()

	r, err := Read(f, expand)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return r, nil
}

// Read reads one community name per line from rd.
func Read(rd io.Reader, expand bool) (*Registry, error) {
	var names []string
	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		names = append(names, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return New(names, expand), nil
}

// Matches reports whether raw names a registered community.
func (r *Registry) Matches(raw string) bool {
	if r.names[normalize.Name(raw)] {
		return true
	}
	if !r.expand {
		return false
	}
	for _, loc := range localities(raw) {
		if r.names[normalize.Name(loc)] {
			return true
		}
	}
	return false
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.names))
	for n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	return len(r.names)
}

// Expanding reports whether locality expansion is active.
func (r *Registry) Expanding() bool {
	return r.expand && PostalAvailable
}
