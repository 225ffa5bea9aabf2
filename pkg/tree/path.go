package tree

import (
	"strings"
)

// Separator joins the segments of a dotted field path.
const Separator = "."

// JoinPath builds a dotted path from segments.
// Examples:
//
//	JoinPath("database", "host") -> "database.host"
//	JoinPath() -> ""
func JoinPath(segments ...string) string {
	return strings.Join(segments, Separator)
}

// SplitPath splits a dotted path into its segments, dropping empty segments.
// Examples:
//
//	SplitPath("database.host") -> ["database", "host"]
//	SplitPath("") -> []
func SplitPath(path string) []string {
	if path == "" {
		return []string{}
	}
	parts := strings.Split(path, Separator)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// AppendKey appends a key to an existing dotted path.
// Examples:
//
//	AppendKey("database", "host") -> "database.host"
//	AppendKey("", "database") -> "database"
func AppendKey(basePath, key string) string {
	if basePath == "" {
		return key
	}
	if key == "" {
		return basePath
	}
	return basePath + Separator + key
}

// ParentPath returns the parent of a dotted path.
// Examples:
//
//	ParentPath("database.host") -> "database"
//	ParentPath("database") -> ""
func ParentPath(path string) string {
	idx := strings.LastIndex(path, Separator)
	if idx == -1 {
		return ""
	}
	return path[:idx]
}

// HasPathPrefix reports whether path equals prefix or lies underneath it.
func HasPathPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+Separator)
}
