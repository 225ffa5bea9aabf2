package merge

import (
	"github.com/cloudposse/confmerge/pkg/tree"
)

// Origin records which source supplied the value of a leaf.
type Origin struct {
	Source SourceRef `json:"source" yaml:"source"`
	Value  any       `json:"value" yaml:"value"`
}

// Provenance stores the origin chain of every leaf path.
// The chain is ordered from the first contributor to the current one.
// It belongs to a single run and is not safe for concurrent use.
type Provenance struct {
	entries map[string][]Origin
}

// NewProvenance creates an empty provenance store.
func NewProvenance() *Provenance {
	return &Provenance{
		entries: make(map[string][]Origin),
	}
}

// Record appends an origin for path without touching other paths. It is
// used when a source re-supplies the value a leaf already holds.
func (p *Provenance) Record(path string, origin Origin) {
	if p == nil {
		return
	}
	p.entries[path] = append(p.entries[path], origin)
}

// Assign records origin for path and drops entries for paths above or below
// it, which no longer describe a leaf once path holds a new value.
func (p *Provenance) Assign(path string, origin Origin) {
	if p == nil {
		return
	}
	for existing := range p.entries {
		if existing == path {
			continue
		}
		if tree.HasPathPrefix(existing, path) || tree.HasPathPrefix(path, existing) {
			delete(p.entries, existing)
		}
	}
	p.entries[path] = append(p.entries[path], origin)
}

// Get returns a copy of the origin chain for path.
func (p *Provenance) Get(path string) []Origin {
	if p == nil {
		return nil
	}

	entries, exists := p.entries[path]
	if !exists {
		return nil
	}

	result := make([]Origin, len(entries))
	copy(result, entries)
	return result
}

// Latest returns the current origin for path.
func (p *Provenance) Latest(path string) (Origin, bool) {
	if p == nil {
		return Origin{}, false
	}
	entries := p.entries[path]
	if len(entries) == 0 {
		return Origin{}, false
	}
	return entries[len(entries)-1], true
}
