package merge

import (
	"github.com/cloudposse/confmerge/pkg/fieldpath"
	"github.com/cloudposse/confmerge/pkg/tree"
)

// FieldGroup is a set of fields that any one source must override together.
type FieldGroup struct {
	Paths []fieldpath.Path
}

// Group builds a FieldGroup.
func Group(paths ...fieldpath.Path) FieldGroup {
	return FieldGroup{Paths: paths}
}

// ResolvedGroup is a FieldGroup expanded to leaf paths in declaration order.
type ResolvedGroup struct {
	Paths []string
}

// ResolveGroups validates and expands groups against shape.
func ResolveGroups(shape *fieldpath.Shape, groups []FieldGroup) ([]ResolvedGroup, error) {
	resolved := make([]ResolvedGroup, 0, len(groups))
	for _, group := range groups {
		leaves, err := fieldpath.ExpandAll(shape, group.Paths)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, ResolvedGroup{Paths: fieldpath.Strings(leaves)})
	}
	return resolved, nil
}

// Attribution ties a group leaf to the source its current value came from.
// Source is nil when no source has supplied the leaf.
type Attribution struct {
	Path   string
	Source *SourceRef
}

// SourceString renders the attributed source, or "none".
func (a Attribution) SourceString() string {
	if a.Source == nil {
		return "none"
	}
	return a.Source.String()
}

// GroupViolation reports a source that changed only part of a group.
type GroupViolation struct {
	Group     []string
	Source    SourceRef
	Changed   []Attribution
	Unchanged []Attribution
}

// CheckGroups compares the raw values of source against the cumulative tree
// before it was merged. A leaf is changed when the source supplies it with a
// value different from before, and unchanged when it is absent or equal.
// Groups with both changed and unchanged leaves are violations.
func CheckGroups(before any, source *Source, groups []ResolvedGroup, origins *Provenance) []GroupViolation {
	current := source.Ref()

	var violations []GroupViolation
	for _, group := range groups {
		var changed, unchanged []Attribution

		for _, path := range group.Paths {
			value, present := tree.GetPath(source.Data, path)
			if present {
				previous, existed := tree.GetPath(before, path)
				if !existed || !tree.Equal(previous, value) {
					changed = append(changed, Attribution{Path: path, Source: &current})
					continue
				}
			}

			attribution := Attribution{Path: path}
			if origin, ok := origins.Latest(path); ok {
				ref := origin.Source
				attribution.Source = &ref
			} else if present {
				attribution.Source = &current
			}
			unchanged = append(unchanged, attribution)
		}

		if len(changed) > 0 && len(unchanged) > 0 {
			violations = append(violations, GroupViolation{
				Group:     group.Paths,
				Source:    current,
				Changed:   changed,
				Unchanged: unchanged,
			})
		}
	}
	return violations
}
