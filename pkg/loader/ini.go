package loader

import (
	"strings"

	"gopkg.in/ini.v1"

	"github.com/cloudposse/confmerge/pkg/tree"
)

// parseINI turns sections into nested mappings. Dotted section names nest
// ("db.replica" becomes {"db": {"replica": {...}}}). Keys of the unnamed
// default section are kept under "DEFAULT" when there are any. Values stay
// strings.
func parseINI(data []byte) (any, error) {
	file, err := ini.Load(data)
	if err != nil {
		return nil, err
	}

	out := map[string]any{}
	for _, section := range file.Sections() {
		keys := section.KeysHash()
		values := make(map[string]any, len(keys))
		for k, v := range keys {
			values[k] = v
		}

		name := section.Name()
		if name == ini.DefaultSection {
			if len(values) > 0 {
				out[ini.DefaultSection] = values
			}
			continue
		}

		target := out
		parts := strings.Split(name, tree.Separator)
		for _, part := range parts[:len(parts)-1] {
			next, ok := target[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				target[part] = next
			}
			target = next
		}
		last := parts[len(parts)-1]
		if existing, ok := target[last].(map[string]any); ok {
			for k, v := range values {
				existing[k] = v
			}
			continue
		}
		target[last] = values
	}
	return out, nil
}
