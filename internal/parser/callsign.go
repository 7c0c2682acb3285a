package parser

import "strings"

// BaseCallsign strips portable prefixes and suffixes from a callsign:
// "EA8/W1AW/P" and "W1AW/QRP" both become "W1AW". The longest
// slash-separated part containing a digit wins; ties go to the first.
func BaseCallsign(call string) string {
	call = strings.ToUpper(strings.TrimSpace(call))
	if !strings.ContainsAny(call, "/.") {
		return call
	}
	parts := strings.FieldsFunc(call, func(r rune) bool { return r == '/' || r == '.' })
	best := ""
	for _, p := range parts {
		if strings.ContainsAny(p, "0123456789") && len(p) > len(best) {
			best = p
		}
	}
	if best == "" && len(parts) > 0 {
		return parts[0]
	}
	return best
}
