package schema

// SkipInvalid selects which invalid fields of a source are dropped before merging.
// All drops every field that fails coercion; otherwise only the listed dotted paths are eligible.
type SkipInvalid struct {
	All    bool
	Fields []string
}

// Enabled reports whether any field may be skipped.
func (s *SkipInvalid) Enabled() bool {
	return s != nil && (s.All || len(s.Fields) > 0)
}

// SkipAllInvalid returns a SkipInvalid that drops every invalid field.
func SkipAllInvalid() *SkipInvalid {
	return &SkipInvalid{All: true}
}

// SkipInvalidFields returns a SkipInvalid restricted to paths.
func SkipInvalidFields(paths ...string) *SkipInvalid {
	return &SkipInvalid{Fields: paths}
}

// MergeConfig is the on-disk merge plan read by the CLI.
type MergeConfig struct {
	Strategy          MergeStrategy      `yaml:"strategy" json:"strategy" mapstructure:"strategy"`
	Sources           []SourceConfig     `yaml:"sources" json:"sources" mapstructure:"sources"`
	FieldMerges       []FieldMergeConfig `yaml:"field_merges,omitempty" json:"field_merges,omitempty" mapstructure:"field_merges"`
	FieldGroups       [][]string         `yaml:"field_groups,omitempty" json:"field_groups,omitempty" mapstructure:"field_groups"`
	SkipBrokenSources bool               `yaml:"skip_broken_sources" json:"skip_broken_sources" mapstructure:"skip_broken_sources"`
	SkipInvalidFields bool               `yaml:"skip_invalid_fields" json:"skip_invalid_fields" mapstructure:"skip_invalid_fields"`
	ExpandEnvVars     ExpandEnvMode      `yaml:"expand_env_vars,omitempty" json:"expand_env_vars,omitempty" mapstructure:"expand_env_vars"`
	Output            Output             `yaml:"output,omitempty" json:"output,omitempty" mapstructure:"output"`
	Logs              Logs               `yaml:"logs,omitempty" json:"logs,omitempty" mapstructure:"logs"`
}

// SourceConfig describes one source of a merge plan.
// An empty File means the process environment.
type SourceConfig struct {
	File              string        `yaml:"file,omitempty" json:"file,omitempty" mapstructure:"file"`
	Loader            string        `yaml:"loader,omitempty" json:"loader,omitempty" mapstructure:"loader"`
	Prefix            string        `yaml:"prefix,omitempty" json:"prefix,omitempty" mapstructure:"prefix"`
	SplitSymbols      string        `yaml:"split_symbols,omitempty" json:"split_symbols,omitempty" mapstructure:"split_symbols"`
	SkipIfBroken      *bool         `yaml:"skip_if_broken,omitempty" json:"skip_if_broken,omitempty" mapstructure:"skip_if_broken"`
	SkipIfInvalid     *bool         `yaml:"skip_if_invalid,omitempty" json:"skip_if_invalid,omitempty" mapstructure:"skip_if_invalid"`
	SkipInvalidFields []string      `yaml:"skip_invalid_fields,omitempty" json:"skip_invalid_fields,omitempty" mapstructure:"skip_invalid_fields"`
	ExpandEnvVars     ExpandEnvMode `yaml:"expand_env_vars,omitempty" json:"expand_env_vars,omitempty" mapstructure:"expand_env_vars"`
	NameStyle         NameStyle     `yaml:"name_style,omitempty" json:"name_style,omitempty" mapstructure:"name_style"`
	// FieldMapping maps a dotted field path to the alternative key names a
	// source may use for it.
	FieldMapping map[string][]string `yaml:"field_mapping,omitempty" json:"field_mapping,omitempty" mapstructure:"field_mapping"`
}

// SkipInvalid converts the per-source skip settings. Nil means "use the global setting".
func (s SourceConfig) SkipInvalid() *SkipInvalid {
	if len(s.SkipInvalidFields) > 0 {
		return SkipInvalidFields(s.SkipInvalidFields...)
	}
	if s.SkipIfInvalid == nil {
		return nil
	}
	return &SkipInvalid{All: *s.SkipIfInvalid}
}

// FieldMergeConfig binds a dotted field path to a FieldMergeStrategy.
type FieldMergeConfig struct {
	Field    string             `yaml:"field" json:"field" mapstructure:"field"`
	Strategy FieldMergeStrategy `yaml:"strategy" json:"strategy" mapstructure:"strategy"`
}

// Output controls how the CLI prints results.
type Output struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty" mapstructure:"format"`
	Report bool   `yaml:"report,omitempty" json:"report,omitempty" mapstructure:"report"`
}

type Logs struct {
	File  string `yaml:"file" json:"file" mapstructure:"file"`
	Level string `yaml:"level" json:"level" mapstructure:"level"`
}
