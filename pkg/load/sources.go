package load

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/cloudposse/confmerge/pkg/decode"
	"github.com/cloudposse/confmerge/pkg/fieldpath"
	"github.com/cloudposse/confmerge/pkg/loader"
	log "github.com/cloudposse/confmerge/pkg/logger"
	"github.com/cloudposse/confmerge/pkg/merge"
)

// parseSources loads every source concurrently. Each result lands in its own
// slot, so the returned slice keeps declaration order. Load failures are
// stored on the source for the engine to skip or report; only invalid
// options and context cancellation fail the call. Sources not yet started
// when ctx is canceled are never loaded.
func parseSources[T any](ctx context.Context, opts Options[T]) ([]*merge.Source, error) {
	loaders := make([]loader.Loader, len(opts.Sources))
	for i, so := range opts.Sources {
		l := so.Loader
		if l == nil {
			var err error
			if l, err = loader.New(so.spec(opts.ExpandEnv)); err != nil {
				return nil, err
			}
		}
		loaders[i] = l
	}

	sources := make([]*merge.Source, len(opts.Sources))
	var g errgroup.Group
	g.SetLimit(opts.concurrency())
	for i, so := range opts.Sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := loaders[i].Load(ctx, so.File)
			sources[i] = &merge.Source{
				Index:        i,
				Kind:         string(loaders[i].Kind()),
				File:         so.File,
				Data:         data,
				Err:          err,
				SkipIfBroken: so.SkipIfBroken,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// A load interrupted by cancellation is not a broken source.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sources, nil
}

// skipInvalid drops values that cannot be decoded into the shape from every
// source whose policy allows it, recording the dropped paths on the source.
func skipInvalid[T any](shape *fieldpath.Shape, sources []*merge.Source, opts Options[T]) error {
	for i, src := range sources {
		if src.Broken() {
			continue
		}
		policy := opts.Sources[i].skipInvalid(opts.SkipInvalidFields)
		if !policy.Enabled() {
			continue
		}

		var allowed []string
		if !policy.All {
			paths, err := resolvePaths(shape, policy.Fields)
			if err != nil {
				return err
			}
			allowed = paths
		}

		cleaned, skipped := decode.FilterInvalid(shape, src.Data, allowed)
		for _, path := range skipped {
			log.Warn("Skipped invalid field", "source", src.Index, "file", src.File, "field", path)
		}
		src.Data = cleaned
		src.SkippedFields = skipped
	}
	return nil
}

// checkFieldMappings rejects alias targets the shape does not have.
func checkFieldMappings(shape *fieldpath.Shape, sources []SourceOptions) error {
	for i, so := range sources {
		targets := lo.Keys(so.FieldMapping)
		sort.Strings(targets)
		if _, err := resolvePaths(shape, targets); err != nil {
			return errors.Wrapf(err, "field_mapping of source %d", i)
		}
	}
	return nil
}

func resolvePaths(shape *fieldpath.Shape, paths []string) ([]string, error) {
	resolved := make([]string, 0, len(paths))
	for _, raw := range paths {
		p, err := fieldpath.Parse(raw)
		if err != nil {
			return nil, err
		}
		if _, err := p.Resolve(shape); err != nil {
			return nil, err
		}
		resolved = append(resolved, p.String())
	}
	return resolved, nil
}
