// Package load reads, merges and decodes configuration sources in one call.
package load

import (
	"context"

	"github.com/cloudposse/confmerge/pkg/decode"
	"github.com/cloudposse/confmerge/pkg/fieldpath"
	"github.com/cloudposse/confmerge/pkg/merge"
)

// InferredShapeName names shapes built from source data by LoadTree.
const InferredShapeName = "config"

// Load reads every source, merges them in order and decodes the result
// into a T. The report is nil unless opts.Debug is set.
func Load[T any](ctx context.Context, opts Options[T]) (*T, *merge.Report, error) {
	shape := fieldpath.ShapeOf[T]()
	if err := checkFieldMappings(shape, opts.Sources); err != nil {
		return nil, nil, err
	}
	result, err := run(ctx, opts, func([]*merge.Source) *fieldpath.Shape { return shape })
	if err != nil {
		return nil, merge.ReportFrom(err), err
	}

	out, err := decode.Decode[T](result.Merged)
	if err != nil {
		return nil, result.Report, merge.WithReport(err, result.Report)
	}
	if opts.Defaults != nil {
		if err := decode.ApplyDefaults(out, *opts.Defaults); err != nil {
			return nil, result.Report, merge.WithReport(err, result.Report)
		}
	}
	return out, result.Report, nil
}

// LoadTree merges sources without a target type. Field rules and groups
// are checked against a shape inferred from the union of the source trees.
func LoadTree(ctx context.Context, opts Options[map[string]any]) (map[string]any, *merge.Report, error) {
	result, err := run(ctx, opts, inferShape)
	if err != nil {
		return nil, merge.ReportFrom(err), err
	}

	merged, _ := result.Merged.(map[string]any)
	if opts.Defaults != nil {
		if err := decode.ApplyDefaults(&merged, *opts.Defaults); err != nil {
			return nil, result.Report, merge.WithReport(err, result.Report)
		}
	}
	return merged, result.Report, nil
}

func inferShape(sources []*merge.Source) *fieldpath.Shape {
	trees := make([]any, 0, len(sources))
	for _, src := range sources {
		if !src.Broken() {
			trees = append(trees, src.Data)
		}
	}
	return fieldpath.ShapeFromTree(InferredShapeName, trees...)
}

func run[T any](ctx context.Context, opts Options[T], shapeOf func([]*merge.Source) *fieldpath.Shape) (*merge.Result, error) {
	sources, err := parseSources(ctx, opts)
	if err != nil {
		return nil, err
	}

	shape := shapeOf(sources)
	if err := skipInvalid(shape, sources, opts); err != nil {
		return nil, err
	}

	var defaulted []string
	if opts.Defaults != nil {
		defaulted = decode.DefaultedPaths(shape, *opts.Defaults)
	}

	engine := merge.NewEngine(merge.WithSink(opts.sink()))
	return engine.Run(sources, merge.Config{
		Shape:             shape,
		Strategy:          opts.Strategy,
		Rules:             opts.FieldMerges,
		Groups:            opts.FieldGroups,
		SkipBrokenSources: opts.SkipBrokenSources,
		Defaulted:         defaulted,
		Debug:             opts.Debug,
	})
}
