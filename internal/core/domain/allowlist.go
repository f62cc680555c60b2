package domain

import "strings"

// WildcardMarker terminates a prefix pattern in an allow-list.
const WildcardMarker = "*"

// AllowList is an ordered set of command patterns. Each entry is either
// an exact command name or a prefix ending in WildcardMarker.
//
// An empty AllowList permits every command. This fail-open posture is
// intentional: operators who configure nothing get an unrestricted
// bridge, and must add entries to restrict it.
type AllowList []string

// IsEmpty returns true if no patterns are configured.
func (l AllowList) IsEmpty() bool {
	return len(l) == 0
}

// Allows reports whether command matches any pattern.
func (l AllowList) Allows(command string) bool {
	if len(l) == 0 {
		return true
	}
	for _, pattern := range l {
		if prefix, ok := strings.CutSuffix(pattern, WildcardMarker); ok {
			if strings.HasPrefix(command, prefix) {
				return true
			}
			continue
		}
		if command == pattern {
			return true
		}
	}
	return false
}

// Filter returns the commands the list allows, preserving order.
func (l AllowList) Filter(commands []string) []string {
	out := make([]string, 0, len(commands))
	for _, c := range commands {
		if l.Allows(c) {
			out = append(out, c)
		}
	}
	return out
}

// Normalise trims whitespace and drops blank entries.
func (l AllowList) Normalise() AllowList {
	out := make(AllowList, 0, len(l))
	for _, p := range l {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
