package internal

import "strings"

// Resolve computes the virtual path of child relative to parent.
//
// A parent ending in "/" (or empty) names a directory and child is joined to
// it. Otherwise parent names a template: children starting with "./" or "../"
// are taken relative to its directory, any other child is root-relative.
// The joined path is normalized: empty and "." segments are dropped, ".."
// pops one segment (never above the root) and leading slashes are removed.
func Resolve(parent, child string) string {
	var base string
	switch {
	case parent == "" || strings.HasSuffix(parent, StrPathSeparator):
		base = parent
	case strings.HasPrefix(child, StrCurrentPrefix) || strings.HasPrefix(child, StrParentPrefix):
		if idx := strings.LastIndex(parent, StrPathSeparator); idx >= 0 {
			base = parent[:idx+1]
		}
	}
	return normalizePath(base + StrPathSeparator + child)
}

// NormalizeNamespace strips a leading "/" and guarantees a trailing "/"
func NormalizeNamespace(ns string) string {
	ns = strings.TrimPrefix(ns, StrPathSeparator)
	if !strings.HasSuffix(ns, StrPathSeparator) {
		ns += StrPathSeparator
	}
	return ns
}

func normalizePath(p string) string {
	segments := strings.Split(p, StrPathSeparator)
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", StrCurrentDir:
		case StrParentDir:
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}
	return strings.Join(out, StrPathSeparator)
}
