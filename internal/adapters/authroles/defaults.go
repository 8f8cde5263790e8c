package authroles

import (
	"fmt"
	"strings"
)

// ParseAuthorizations parses a comma-separated list of default memberships.
// Each entry is either "group" or "group:role"; surrounding whitespace is ignored.
func ParseAuthorizations(spec string) ([]string, error) {
	var out []string
	for _, raw := range strings.Split(spec, ",") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		group, role, hasRole := strings.Cut(entry, ":")
		group = strings.TrimSpace(group)
		role = strings.TrimSpace(role)
		if group == "" || (hasRole && role == "") || strings.Contains(role, ":") {
			return nil, fmt.Errorf("invalid authorization %q: want group or group:role", entry)
		}
		if hasRole {
			out = append(out, group+":"+role)
		} else {
			out = append(out, group)
		}
	}
	return normalize(out), nil
}

// Merge unions membership lists, de-duplicated and sorted.
func Merge(lists ...[]string) []string {
	var all []string
	for _, l := range lists {
		all = append(all, l...)
	}
	return normalize(all)
}
