package common

import (
	"strings"
)

// Splits a comma separated string, e.g. "a, b,,c", into its non-empty trimmed elements.
func SplitCommaSep(commaSepString string) []string {
	var out []string
	for _, elem := range strings.Split(commaSepString, ",") {
		if elem = strings.TrimSpace(elem); elem != "" {
			out = append(out, elem)
		}
	}
	return out
}

// Splits a comma separated string consisting of key value pairs,
// e.g. "k1=v1,k2=v2", into a map
func SplitCommaSepToMap(commaSepString string) map[string]string {
	m := make(map[string]string)
	for _, pair := range SplitCommaSep(commaSepString) {
		kv := strings.Split(pair, "=")
		if len(kv) != 2 {
			continue
		}
		m[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return m
}
