package merge

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	errUtils "github.com/cloudposse/confmerge/errors"
	"github.com/cloudposse/confmerge/pkg/fieldpath"
	"github.com/cloudposse/confmerge/pkg/schema"
	"github.com/cloudposse/confmerge/pkg/tree"
)

// FieldRule overrides the merge strategy for the leaves under Path.
type FieldRule struct {
	Path     fieldpath.Path
	Strategy schema.FieldMergeStrategy
}

// RuleSet maps leaf paths to their field merge strategy.
// Rules on nested records are expanded to their leaves when the set is built.
type RuleSet struct {
	byPath map[string]schema.FieldMergeStrategy
}

// NewRuleSet resolves and expands rules against shape. When several rules
// cover the same leaf, the later rule wins.
func NewRuleSet(shape *fieldpath.Shape, rules []FieldRule) (*RuleSet, error) {
	rs := &RuleSet{byPath: make(map[string]schema.FieldMergeStrategy)}
	for _, rule := range rules {
		strategy, err := schema.ParseFieldMergeStrategy(string(rule.Strategy))
		if err != nil {
			return nil, err
		}
		leaves, err := fieldpath.Expand(shape, rule.Path)
		if err != nil {
			return nil, err
		}
		for _, leaf := range leaves {
			rs.byPath[leaf.String()] = strategy
		}
	}
	return rs, nil
}

// StrategyFor returns the explicit strategy for a leaf path.
func (rs *RuleSet) StrategyFor(path string) (schema.FieldMergeStrategy, bool) {
	if rs == nil {
		return "", false
	}
	s, ok := rs.byPath[path]
	return s, ok
}

// Has reports whether an explicit rule covers path.
func (rs *RuleSet) Has(path string) bool {
	_, ok := rs.StrategyFor(path)
	return ok
}

// Paths lists the covered leaf paths in sorted order.
func (rs *RuleSet) Paths() []string {
	if rs == nil {
		return nil
	}
	paths := lo.Keys(rs.byPath)
	sort.Strings(paths)
	return paths
}

// resolveConflict picks the value for a key present on both sides when at
// least one side is not a mapping.
func resolveConflict(path string, base, incoming any, strategy schema.MergeStrategy, rules *RuleSet) (any, error) {
	if fieldStrategy, ok := rules.StrategyFor(path); ok {
		return applyFieldStrategy(path, base, incoming, fieldStrategy)
	}
	if strategy == schema.MergeStrategyFirstWins {
		return base, nil
	}
	// last_wins; raise_on_conflict defers divergence to the conflict detector.
	return incoming, nil
}

func applyFieldStrategy(path string, base, incoming any, strategy schema.FieldMergeStrategy) (any, error) {
	switch {
	case strategy == schema.FieldMergeFirstWins:
		return base, nil
	case strategy == schema.FieldMergeLastWins:
		return incoming, nil
	case strategy.IsList():
		return mergeLists(path, base, incoming, strategy)
	case strategy.IsOrdered():
		return pickOrdered(path, base, incoming, strategy)
	default:
		return nil, errors.Wrapf(errUtils.ErrUnknownFieldMergeStrategy, "path=%s strategy=%q", path, strategy)
	}
}

func mergeLists(path string, base, incoming any, strategy schema.FieldMergeStrategy) (any, error) {
	b, baseOK := tree.AsList(base)
	o, incomingOK := tree.AsList(incoming)
	if !baseOK || !incomingOK {
		return nil, &TypeMismatchError{Path: path, Strategy: strategy, Base: base, Incoming: incoming}
	}

	var combined []any
	switch strategy {
	case schema.FieldMergePrepend, schema.FieldMergePrependUnique:
		combined = concat(o, b)
	default:
		combined = concat(b, o)
	}

	if strings.HasSuffix(string(strategy), "_unique") {
		return dedupe(combined), nil
	}
	return combined, nil
}

func concat(first, second []any) []any {
	out := make([]any, 0, len(first)+len(second))
	out = append(out, tree.Clone(first).([]any)...)
	return append(out, tree.Clone(second).([]any)...)
}

// dedupe drops repeated elements by deep equality, keeping first occurrences.
func dedupe(items []any) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		if lo.ContainsBy(out, func(seen any) bool { return tree.Equal(seen, item) }) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// pickOrdered implements max and min. Numbers compare numerically across
// integer and float, strings compare lexically, and anything else is a
// type mismatch. Ties keep the base value.
func pickOrdered(path string, base, incoming any, strategy schema.FieldMergeStrategy) (any, error) {
	cmp, ok := compareOrdered(base, incoming)
	if !ok {
		return nil, &TypeMismatchError{Path: path, Strategy: strategy, Base: base, Incoming: incoming}
	}
	if strategy == schema.FieldMergeMax {
		if cmp < 0 {
			return incoming, nil
		}
		return base, nil
	}
	if cmp > 0 {
		return incoming, nil
	}
	return base, nil
}

func compareOrdered(a, b any) (int, bool) {
	if isNumber(a) && isNumber(b) {
		if ai, aok := a.(int64); aok {
			if bi, bok := b.(int64); bok {
				return compare(ai, bi), true
			}
		}
		af, errA := cast.ToFloat64E(a)
		bf, errB := cast.ToFloat64E(b)
		if errA != nil || errB != nil {
			return 0, false
		}
		return compare(af, bf), true
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int64, float64:
		return true
	default:
		return false
	}
}

func compare[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
