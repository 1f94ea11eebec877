package util

import (
	"maps"
	"slices"
	"strings"
)

// SplitPortName cuts an interface name before its first digit, e.g.
// "ethernet 1/3" gives ("ethernet", "1/3"). The prefix is lowercased with
// blanks removed.
func SplitPortName(name string) (prefix, number string) {
	i := strings.IndexAny(name, "0123456789")
	if i < 0 {
		i = len(name)
	}
	prefix = strings.ToLower(strings.ReplaceAll(name[:i], " ", ""))
	return prefix, strings.TrimSpace(name[i:])
}

func SortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
