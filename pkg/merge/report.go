package merge

import (
	"github.com/cockroachdb/errors"

	"github.com/cloudposse/confmerge/pkg/schema"
)

// SourceEntry is a snapshot of one source in a Report.
type SourceEntry struct {
	Source        SourceRef `json:"source" yaml:"source"`
	Data          any       `json:"data,omitempty" yaml:"data,omitempty"`
	Skipped       bool      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Reason        string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	SkippedFields []string  `json:"skipped_fields,omitempty" yaml:"skipped_fields,omitempty"`
}

// FieldOrigin is the final value of a leaf and the source that set it.
// Source is the highest-indexed source that supplied the final value under
// last_wins; under first_wins or a field rule it is the source whose value
// was kept. History lists every source that set or re-supplied the leaf,
// oldest first.
type FieldOrigin struct {
	Path    string    `json:"path" yaml:"path"`
	Value   any       `json:"value" yaml:"value"`
	Source  SourceRef `json:"source" yaml:"source"`
	History []Origin  `json:"history,omitempty" yaml:"history,omitempty"`
}

// Report describes a merge run: every source in order, the origin of each
// merged leaf, and the merged tree.
type Report struct {
	Shape    string               `json:"shape,omitempty" yaml:"shape,omitempty"`
	Strategy schema.MergeStrategy `json:"strategy" yaml:"strategy"`
	Sources  []SourceEntry        `json:"sources" yaml:"sources"`
	Origins  []FieldOrigin        `json:"origins" yaml:"origins"`
	Merged   any                  `json:"merged" yaml:"merged"`
}

// Origin returns the origin of a leaf path.
func (r *Report) Origin(path string) (FieldOrigin, bool) {
	if r == nil {
		return FieldOrigin{}, false
	}
	for _, o := range r.Origins {
		if o.Path == path {
			return o, true
		}
	}
	return FieldOrigin{}, false
}

// Skipped returns the entries of skipped sources.
func (r *Report) Skipped() []SourceEntry {
	if r == nil {
		return nil
	}
	var out []SourceEntry
	for _, s := range r.Sources {
		if s.Skipped {
			out = append(out, s)
		}
	}
	return out
}

type reportError struct {
	err    error
	report *Report
}

func (e *reportError) Error() string { return e.err.Error() }

func (e *reportError) Unwrap() error { return e.err }

// WithReport attaches report to err. A nil report leaves err as is.
func WithReport(err error, report *Report) error {
	if err == nil || report == nil {
		return err
	}
	return &reportError{err: err, report: report}
}

// ReportFrom returns the report attached to a failed merge, if any.
func ReportFrom(err error) *Report {
	var re *reportError
	if errors.As(err, &re) {
		return re.report
	}
	return nil
}
