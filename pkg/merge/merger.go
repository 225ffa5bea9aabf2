// Package merge combines parsed configuration trees from several sources
// into one, tracking which source supplied every leaf.
package merge

import (
	"sort"

	"github.com/samber/lo"

	"github.com/cloudposse/confmerge/pkg/schema"
	"github.com/cloudposse/confmerge/pkg/tree"
)

// Diff lists the leaf paths a merge step changed.
type Diff struct {
	// Added holds leaves that did not exist in the base tree.
	Added []string
	// Overwritten holds leaves whose resulting value differs from the base value.
	Overwritten []string
}

// Changed returns Added and Overwritten combined, sorted.
func (d *Diff) Changed() []string {
	if d == nil {
		return nil
	}
	changed := lo.Uniq(append(append([]string{}, d.Added...), d.Overwritten...))
	sort.Strings(changed)
	return changed
}

// Empty reports whether the step changed nothing.
func (d *Diff) Empty() bool {
	return d == nil || (len(d.Added) == 0 && len(d.Overwritten) == 0)
}

func (d *Diff) recordAdded(path string, value any) {
	d.Added = appendLeafPaths(d.Added, path, value)
}

func (d *Diff) recordOverwritten(path string, value any) {
	d.Overwritten = appendLeafPaths(d.Overwritten, path, value)
}

func appendLeafPaths(dst []string, path string, value any) []string {
	if _, ok := tree.AsMap(value); !ok {
		if path == "" {
			return dst
		}
		return append(dst, path)
	}
	for _, leaf := range tree.Leaves(value) {
		dst = append(dst, tree.AppendKey(path, leaf.Path))
	}
	return dst
}

// Merge merges incoming into base and returns a new tree. Neither input is
// modified.
//
// Keys present on one side only are taken from that side. Mappings present on
// both sides are always merged key by key. For any other key present on both
// sides the rule for the key's path applies, falling back to strategy.
func Merge(base, incoming any, strategy schema.MergeStrategy, rules *RuleSet) (any, *Diff, error) {
	diff := &Diff{}
	merged, err := mergeValue("", base, incoming, strategy, rules, diff)
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Overwritten)
	return merged, diff, nil
}

func mergeValue(path string, base, incoming any, strategy schema.MergeStrategy, rules *RuleSet, diff *Diff) (any, error) {
	baseMap, baseIsMap := tree.AsMap(base)
	incomingMap, incomingIsMap := tree.AsMap(incoming)
	if baseIsMap && incomingIsMap {
		return mergeMaps(path, baseMap, incomingMap, strategy, rules, diff)
	}

	value, err := resolveConflict(path, base, incoming, strategy, rules)
	if err != nil {
		return nil, err
	}
	if !tree.Equal(value, base) {
		diff.recordOverwritten(path, value)
	}
	return tree.Clone(value), nil
}

func mergeMaps(path string, base, incoming map[string]any, strategy schema.MergeStrategy, rules *RuleSet, diff *Diff) (map[string]any, error) {
	out := make(map[string]any, len(base)+len(incoming))
	for key, value := range base {
		out[key] = tree.Clone(value)
	}

	for _, key := range tree.SortedKeys(incoming) {
		childPath := tree.AppendKey(path, key)
		value := incoming[key]

		existing, ok := base[key]
		if !ok {
			out[key] = tree.Clone(value)
			diff.recordAdded(childPath, value)
			continue
		}

		merged, err := mergeValue(childPath, existing, value, strategy, rules, diff)
		if err != nil {
			return nil, err
		}
		out[key] = merged
	}

	return out, nil
}
