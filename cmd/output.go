package cmd

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-yaml"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func parseFormat(s string) (string, error) {
	switch format := strings.ToLower(strings.TrimSpace(s)); format {
	case "", formatYAML, "yml":
		return formatYAML, nil
	case formatJSON:
		return formatJSON, nil
	default:
		return "", invalidFlag("format", s, "Use --format yaml or --format json")
	}
}

// render writes v as YAML or JSON.
func render(w io.Writer, v any, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case formatJSON:
		if data, err = json.MarshalIndent(v, "", "  "); err == nil {
			data = append(data, '\n')
		}
	default:
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return errors.Wrapf(err, "render %s", format)
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "write output")
	}
	return nil
}
