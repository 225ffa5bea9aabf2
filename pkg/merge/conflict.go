package merge

import (
	"sort"

	"github.com/samber/lo"

	"github.com/cloudposse/confmerge/pkg/schema"
	"github.com/cloudposse/confmerge/pkg/tree"
)

const minConflictSources = 2

// SourceValue is the value one source supplied for a path.
type SourceValue struct {
	Source SourceRef
	Value  any
}

// Conflict is a path whose sources disagree under raise_on_conflict.
type Conflict struct {
	Path   string
	Values []SourceValue
}

// DetectConflicts compares every path supplied by two or more sources and
// returns all paths whose values differ. Only runs under raise_on_conflict;
// paths covered by an explicit field rule are exempt. Broken sources are
// ignored. Conflicts are sorted by path.
func DetectConflicts(sources []*Source, strategy schema.MergeStrategy, rules *RuleSet) []Conflict {
	if strategy != schema.MergeStrategyRaiseOnConflict {
		return nil
	}

	values := make([]SourceValue, 0, len(sources))
	for _, src := range sources {
		if src.Broken() {
			continue
		}
		values = append(values, SourceValue{Source: src.Ref(), Value: src.Data})
	}

	var conflicts []Conflict
	collectConflicts("", values, rules, &conflicts)
	sort.SliceStable(conflicts, func(i, j int) bool { return conflicts[i].Path < conflicts[j].Path })
	return conflicts
}

func collectConflicts(path string, values []SourceValue, rules *RuleSet, conflicts *[]Conflict) {
	byKey := map[string][]SourceValue{}
	for _, sv := range values {
		m, ok := tree.AsMap(sv.Value)
		if !ok {
			continue
		}
		for key, value := range m {
			byKey[key] = append(byKey[key], SourceValue{Source: sv.Source, Value: value})
		}
	}

	for _, key := range sortedKeys(byKey) {
		contributors := byKey[key]
		if len(contributors) < minConflictSources {
			continue
		}
		childPath := tree.AppendKey(path, key)
		if rules.Has(childPath) {
			continue
		}

		allMaps := lo.EveryBy(contributors, func(sv SourceValue) bool {
			_, ok := tree.AsMap(sv.Value)
			return ok
		})
		if allMaps {
			collectConflicts(childPath, contributors, rules, conflicts)
			continue
		}

		first := contributors[0].Value
		if lo.EveryBy(contributors[1:], func(sv SourceValue) bool { return tree.Equal(first, sv.Value) }) {
			continue
		}
		*conflicts = append(*conflicts, Conflict{Path: childPath, Values: contributors})
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
