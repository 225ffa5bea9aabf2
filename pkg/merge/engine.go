package merge

import (
	"slices"

	"github.com/cockroachdb/errors"

	errUtils "github.com/cloudposse/confmerge/errors"
	"github.com/cloudposse/confmerge/pkg/fieldpath"
	"github.com/cloudposse/confmerge/pkg/schema"
	"github.com/cloudposse/confmerge/pkg/tree"
)

// Config controls one merge run.
type Config struct {
	// Shape validates rule and group paths. Required when Rules or Groups are set.
	Shape    *fieldpath.Shape
	Strategy schema.MergeStrategy
	Rules    []FieldRule
	Groups   []FieldGroup
	// SkipBrokenSources is the default for sources without their own flag.
	SkipBrokenSources bool
	// Defaulted lists leaf paths the caller fills with a default after the
	// merge. They are never reported as missing.
	Defaulted []string
	// Debug materialises the Report, on success and attached to errors.
	Debug bool
}

// Result is the outcome of a successful run.
type Result struct {
	Merged any
	// Report is nil unless Config.Debug is set.
	Report *Report
}

// Engine merges ordered sources. It holds no state between runs and is safe
// for concurrent use.
type Engine struct {
	sink Sink
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink routes trace events to sink.
func WithSink(sink Sink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{sink: nopSink{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run is the state of a single Engine.Run call.
type run struct {
	sink     Sink
	shape    string
	strategy schema.MergeStrategy
	rules    *RuleSet
	groups   []ResolvedGroup
	debug    bool

	cumulative any
	origins    *Provenance
	entries    []SourceEntry
	usable     []*Source
	violations []GroupViolation
}

// Run merges sources in order. Rules and groups are resolved against
// cfg.Shape before any source is looked at.
//
// A broken source is skipped when its own flag, or else
// cfg.SkipBrokenSources, allows it; otherwise Run fails with a *LoadError.
// Field group violations, conflicts and required fields lost to invalid
// values are collected over the whole run and reported together, in that
// order of precedence.
func (e *Engine) Run(sources []*Source, cfg Config) (*Result, error) {
	strategy, err := schema.ParseMergeStrategy(string(cfg.Strategy))
	if err != nil {
		return nil, err
	}
	rules, err := NewRuleSet(cfg.Shape, cfg.Rules)
	if err != nil {
		return nil, err
	}
	groups, err := ResolveGroups(cfg.Shape, cfg.Groups)
	if err != nil {
		return nil, err
	}

	r := &run{
		sink:       e.sink,
		shape:      shapeName(cfg.Shape),
		strategy:   strategy,
		rules:      rules,
		groups:     groups,
		debug:      cfg.Debug,
		cumulative: map[string]any{},
		origins:    NewProvenance(),
	}

	if len(sources) == 0 {
		return nil, errors.Wrapf(errUtils.ErrNoSources, "shape=%s", shapeLabel(r.shape))
	}

	var skipped []*LoadError
	for _, src := range sources {
		ready, err := prepare(src)
		if err != nil {
			loadErr := &LoadError{Source: src.Ref(), Err: err}
			if !src.shouldSkip(cfg.SkipBrokenSources) {
				return nil, r.fail(loadErr)
			}
			r.skip(src, err)
			skipped = append(skipped, loadErr)
			continue
		}
		if err := r.step(ready); err != nil {
			return nil, r.fail(err)
		}
	}

	if len(r.usable) == 0 {
		return nil, r.fail(&AllSourcesFailedError{Shape: r.shape, Errs: skipped})
	}

	if len(r.violations) > 0 {
		return nil, r.fail(&FieldGroupError{Shape: r.shape, Violations: r.violations})
	}

	if conflicts := DetectConflicts(r.usable, r.strategy, r.rules); len(conflicts) > 0 {
		for _, c := range conflicts {
			r.sink.Emit(Event{Kind: EventConflict, Shape: r.shape, Path: c.Path})
		}
		return nil, r.fail(&MergeConflictError{Shape: r.shape, Conflicts: conflicts})
	}

	if missing := r.missingRequired(cfg.Shape, cfg.Defaulted); len(missing) > 0 {
		return nil, r.fail(&MissingFieldsError{Shape: r.shape, Fields: missing})
	}

	return &Result{Merged: r.cumulative, Report: r.report()}, nil
}

// prepare returns the source to merge, or the reason it cannot be merged.
// A nil root is an empty document; any other non-mapping root is rejected.
func prepare(src *Source) (*Source, error) {
	if src.Broken() {
		return src, src.Err
	}
	switch src.Data.(type) {
	case map[string]any:
		return src, nil
	case nil:
		empty := *src
		empty.Data = map[string]any{}
		return &empty, nil
	default:
		return src, errors.Wrapf(errUtils.ErrParseSource, "root is a %s, not a mapping", tree.Kind(src.Data))
	}
}

func (r *run) skip(src *Source, err error) {
	r.entries = append(r.entries, SourceEntry{
		Source:  src.Ref(),
		Skipped: true,
		Reason:  err.Error(),
	})
	r.sink.Emit(Event{Kind: EventSourceSkipped, Shape: r.shape, Source: src.Ref(), Err: err})
}

func (r *run) step(src *Source) error {
	ref := src.Ref()
	r.sink.Emit(Event{Kind: EventSourceLoaded, Shape: r.shape, Source: ref, Keys: topLevelKeys(src.Data)})

	// The first usable source sets the baseline; groups are only checked
	// against state built by earlier sources.
	if len(r.usable) > 0 {
		violations := CheckGroups(r.cumulative, src, r.groups, r.origins)
		for _, v := range violations {
			r.sink.Emit(Event{Kind: EventGroupViolation, Shape: r.shape, Source: ref, Path: tree.JoinPath(v.Group...)})
		}
		r.violations = append(r.violations, violations...)
	}

	merged, diff, err := Merge(r.cumulative, src.Data, r.strategy, r.rules)
	if err != nil {
		return err
	}
	r.sink.Emit(Event{Kind: EventMergeStepApplied, Shape: r.shape, Source: ref, Diff: diff})

	changed := diff.Changed()
	for _, path := range changed {
		value, _ := tree.GetPath(merged, path)
		r.origins.Assign(path, Origin{Source: ref, Value: value})
		r.sink.Emit(Event{Kind: EventFieldOriginAssigned, Shape: r.shape, Source: ref, Path: path, Value: value})
	}
	r.recordResupplied(ref, src.Data, merged, changed)

	r.cumulative = merged
	r.usable = append(r.usable, src)
	r.entries = append(r.entries, SourceEntry{
		Source:        ref,
		Data:          src.Data,
		SkippedFields: slices.Clone(src.SkippedFields),
	})
	return nil
}

// recordResupplied makes ref the origin of the leaves it supplies with the
// value they already hold, when the leaf follows a strategy that takes the
// incoming value. Under first_wins and explicit field rules the earlier
// origin stays.
func (r *run) recordResupplied(ref SourceRef, data, merged any, changed []string) {
	if r.strategy != schema.MergeStrategyLastWins && r.strategy != schema.MergeStrategyRaiseOnConflict {
		return
	}
	for _, leaf := range tree.Leaves(data) {
		if slices.Contains(changed, leaf.Path) || r.rules.Has(leaf.Path) {
			continue
		}
		value, ok := tree.GetPath(merged, leaf.Path)
		if !ok || !tree.Equal(value, leaf.Value) {
			continue
		}
		r.origins.Record(leaf.Path, Origin{Source: ref, Value: value})
		r.sink.Emit(Event{Kind: EventFieldOriginAssigned, Shape: r.shape, Source: ref, Path: leaf.Path, Value: value})
	}
}

// missingRequired finds required leaves without a default that are absent
// from the merged tree and that some source supplied with an invalid value,
// directly or through an invalid parent record.
func (r *run) missingRequired(shape *fieldpath.Shape, defaulted []string) []MissingField {
	if shape == nil {
		return nil
	}
	var missing []MissingField
	for _, leaf := range fieldpath.RequiredLeaves(shape) {
		path := leaf.String()
		if _, ok := tree.GetPath(r.cumulative, path); ok {
			continue
		}
		if slices.ContainsFunc(defaulted, func(d string) bool { return tree.HasPathPrefix(path, d) }) {
			continue
		}
		var invalidIn []SourceRef
		for _, src := range r.usable {
			if slices.ContainsFunc(src.SkippedFields, func(skipped string) bool { return tree.HasPathPrefix(path, skipped) }) {
				invalidIn = append(invalidIn, src.Ref())
			}
		}
		if len(invalidIn) > 0 {
			missing = append(missing, MissingField{Path: path, InvalidIn: invalidIn})
		}
	}
	return missing
}

func (r *run) report() *Report {
	if !r.debug {
		return nil
	}
	report := &Report{
		Shape:    r.shape,
		Strategy: r.strategy,
		Sources:  slices.Clone(r.entries),
		Merged:   r.cumulative,
	}
	for _, leaf := range tree.Leaves(r.cumulative) {
		origin, ok := r.origins.Latest(leaf.Path)
		if !ok {
			continue
		}
		report.Origins = append(report.Origins, FieldOrigin{
			Path:    leaf.Path,
			Value:   leaf.Value,
			Source:  origin.Source,
			History: r.origins.Get(leaf.Path),
		})
	}
	return report
}

func (r *run) fail(err error) error {
	return WithReport(err, r.report())
}

func topLevelKeys(data any) []string {
	m, ok := tree.AsMap(data)
	if !ok {
		return nil
	}
	return tree.SortedKeys(m)
}

func shapeName(shape *fieldpath.Shape) string {
	if shape == nil {
		return ""
	}
	return shape.Name
}
