package cmd

import (
	"strings"

	"dario.cat/mergo"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	errUtils "github.com/cloudposse/confmerge/errors"
	"github.com/cloudposse/confmerge/pkg/fieldpath"
	"github.com/cloudposse/confmerge/pkg/load"
	"github.com/cloudposse/confmerge/pkg/loader"
	log "github.com/cloudposse/confmerge/pkg/logger"
	"github.com/cloudposse/confmerge/pkg/merge"
	"github.com/cloudposse/confmerge/pkg/schema"
)

// EnvPrefix prefixes the environment variables that override plan settings.
const EnvPrefix = "CONFMERGE"

const (
	formatYAML = "yaml"
	formatJSON = "json"

	envSource       = "env"
	envSourcePrefix = "env:"
)

// planBinding ties a plan key to the flag that sets it. The matching
// environment variable is derived from the key by envVar.
type planBinding struct {
	key  string
	flag string
}

var planBindings = []planBinding{
	{key: "strategy", flag: "strategy"},
	{key: "skip_broken_sources", flag: "skip-broken"},
	{key: "skip_invalid_fields", flag: "skip-invalid"},
	{key: "expand_env_vars", flag: "expand-env"},
	{key: "output.format", flag: "format"},
	{key: "output.report", flag: "report"},
	{key: "logs.level", flag: "logs-level"},
	{key: "logs.file", flag: "logs-file"},
}

// envVar returns the variable for a plan key, e.g. output.format -> CONFMERGE_OUTPUT_FORMAT.
func envVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func defaultPlan() schema.MergeConfig {
	return schema.MergeConfig{
		Strategy:      schema.MergeStrategyLastWins,
		ExpandEnvVars: schema.ExpandEnvDefault,
		Output:        schema.Output{Format: formatYAML},
		Logs:          schema.Logs{Level: string(log.LogLevelWarning)},
	}
}

// readPlan builds the merge plan. Precedence, highest first: flags,
// CONFMERGE_* variables, the --config file, built-in defaults.
func readPlan(cmd *cobra.Command) (schema.MergeConfig, error) {
	v := viper.New()
	for _, b := range planBindings {
		if err := v.BindPFlag(b.key, cmd.Flags().Lookup(b.flag)); err != nil {
			return schema.MergeConfig{}, errors.Wrapf(err, "bind flag %s", b.flag)
		}
		if err := v.BindEnv(b.key, envVar(b.key)); err != nil {
			return schema.MergeConfig{}, errors.Wrapf(err, "bind env %s", envVar(b.key))
		}
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return schema.MergeConfig{}, errUtils.Build(errors.Wrapf(errUtils.ErrLoadSource, "plan %s: %v", configFile, err)).
				WithHint("Check the path and syntax of the --config file").
				WithExitCode(errUtils.ExitCodeInvalidInvocation).
				Err()
		}
	}

	var plan schema.MergeConfig
	if err := v.Unmarshal(&plan); err != nil {
		return schema.MergeConfig{}, errors.Wrap(err, "decode merge plan")
	}
	if err := mergo.Merge(&plan, defaultPlan()); err != nil {
		return schema.MergeConfig{}, errors.Wrap(err, "apply plan defaults")
	}

	fieldMerges, _ := cmd.Flags().GetStringArray("field-merge")
	for _, raw := range fieldMerges {
		fm, err := parseFieldMergeFlag(raw)
		if err != nil {
			return schema.MergeConfig{}, err
		}
		plan.FieldMerges = append(plan.FieldMerges, fm)
	}

	groups, _ := cmd.Flags().GetStringArray("group")
	for _, raw := range groups {
		plan.FieldGroups = append(plan.FieldGroups, splitList(raw))
	}

	return plan, nil
}

// parseFieldMergeFlag reads "path=strategy".
func parseFieldMergeFlag(raw string) (schema.FieldMergeConfig, error) {
	path, strategy, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(path) == "" {
		return schema.FieldMergeConfig{}, invalidFlag("field-merge", raw, "Use --field-merge path=strategy, e.g. --field-merge tags=append_unique")
	}
	return schema.FieldMergeConfig{
		Field:    strings.TrimSpace(path),
		Strategy: schema.FieldMergeStrategy(strings.TrimSpace(strategy)),
	}, nil
}

func invalidFlag(flag, value, hint string) error {
	return errUtils.Build(errors.Wrapf(errUtils.ErrInvalidFlag, "--%s=%q", flag, value)).
		WithHint(hint).
		WithExitCode(errUtils.ExitCodeInvalidInvocation).
		Err()
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// buildOptions turns a plan plus positional sources into load options.
func buildOptions(plan schema.MergeConfig, args []string) (load.Options[map[string]any], error) {
	opts := load.Options[map[string]any]{
		Strategy:          plan.Strategy,
		SkipBrokenSources: plan.SkipBrokenSources,
		ExpandEnv:         plan.ExpandEnvVars,
		Debug:             plan.Output.Report,
	}
	if plan.SkipInvalidFields {
		opts.SkipInvalidFields = schema.SkipAllInvalid()
	}

	for _, sc := range plan.Sources {
		opts.Sources = append(opts.Sources, load.SourceOptions{
			File:         sc.File,
			Kind:         loader.Kind(sc.Loader),
			Prefix:       sc.Prefix,
			SplitSymbols: sc.SplitSymbols,
			ExpandEnv:    sc.ExpandEnvVars,
			NameStyle:    sc.NameStyle,
			FieldMapping: sc.FieldMapping,
			SkipIfBroken: sc.SkipIfBroken,
			SkipInvalid:  sc.SkipInvalid(),
		})
	}
	for _, arg := range args {
		opts.Sources = append(opts.Sources, parseSourceArg(arg))
	}

	for _, fm := range plan.FieldMerges {
		path, err := fieldpath.Parse(fm.Field)
		if err != nil {
			return opts, err
		}
		strategy, err := schema.ParseFieldMergeStrategy(string(fm.Strategy))
		if err != nil {
			return opts, err
		}
		opts.FieldMerges = append(opts.FieldMerges, merge.FieldRule{Path: path, Strategy: strategy})
	}

	for _, group := range plan.FieldGroups {
		paths := make([]fieldpath.Path, 0, len(group))
		for _, raw := range group {
			p, err := fieldpath.Parse(raw)
			if err != nil {
				return opts, err
			}
			paths = append(paths, p)
		}
		opts.FieldGroups = append(opts.FieldGroups, merge.Group(paths...))
	}

	return opts, nil
}

// parseSourceArg reads a positional source: a file path, "env" or "env:PREFIX".
func parseSourceArg(arg string) load.SourceOptions {
	switch {
	case arg == envSource:
		return load.Env("")
	case strings.HasPrefix(arg, envSourcePrefix):
		return load.Env(strings.TrimPrefix(arg, envSourcePrefix))
	default:
		return load.File(arg)
	}
}
