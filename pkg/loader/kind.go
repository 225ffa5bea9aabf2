package loader

import (
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	errUtils "github.com/cloudposse/confmerge/errors"
)

// Kind names a source format.
type Kind string

const (
	KindEnv     Kind = "env"
	KindEnvFile Kind = "envfile"
	KindYAML    Kind = "yaml"
	KindYAML11  Kind = "yaml1.1"
	KindYAML12  Kind = "yaml1.2"
	KindJSON    Kind = "json"
	KindJSON5   Kind = "json5"
	KindTOML    Kind = "toml"
	KindINI     Kind = "ini"
)

// Kinds lists every supported Kind.
var Kinds = []Kind{KindEnv, KindEnvFile, KindYAML, KindYAML11, KindYAML12, KindJSON, KindJSON5, KindTOML, KindINI}

// extensionKinds maps lower-case file extensions to kinds.
var extensionKinds = map[string]Kind{
	".env":   KindEnvFile,
	".yaml":  KindYAML,
	".yml":   KindYAML,
	".json":  KindJSON,
	".json5": KindJSON5,
	".toml":  KindTOML,
	".ini":   KindINI,
	".cfg":   KindINI,
}

// SupportedExtensions lists the extensions KindFromPath recognises, sorted.
var SupportedExtensions = []string{".cfg", ".env", ".ini", ".json", ".json5", ".toml", ".yaml", ".yml"}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range Kinds {
		if k == kind {
			return k, nil
		}
	}
	return "", errors.Wrapf(errUtils.ErrUnknownLoaderKind, "loader=%q", s)
}

// KindFromPath infers the kind of a source from its file name.
// Examples:
//
//	KindFromPath("") -> env
//	KindFromPath("config.YML") -> yaml
//	KindFromPath(".env.local") -> envfile
func KindFromPath(path string) (Kind, error) {
	if path == "" {
		return KindEnv, nil
	}

	base := filepath.Base(path)
	if kind, ok := extensionKinds[strings.ToLower(filepath.Ext(base))]; ok {
		return kind, nil
	}
	if strings.HasPrefix(base, ".env") {
		return KindEnvFile, nil
	}

	return "", errUtils.Build(errors.Wrapf(errUtils.ErrUnknownLoaderKind, "file=%s", path)).
		WithExplanationf("No loader handles the %q extension.", filepath.Ext(base)).
		WithHintf("Set the loader explicitly or use a supported extension: %s", strings.Join(SupportedExtensions, ", ")).
		Err()
}
