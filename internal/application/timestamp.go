package application

import (
	"regexp"
	"strings"

	"github.com/yaahc/scdoall-rewrite/internal/domain"
)

// timestampPattern recognizes a leading date token and time token of the shape
// a structured log line carries. The match is positional only: field widths
// are checked, calendar and clock ranges are not, so "2024-13-40 99:00:00"
// is accepted and ordered lexicographically like anything else.
var timestampPattern = regexp.MustCompile(`^(\S{4}-\S{2}-\S{2})[ T](\S{2}:\S{2}:\S{2}(?:\.\d+)?)(\s|$)`)

// extractTimestamp splits a line into its normalized timestamp and the
// remaining text. ok is false when the line carries no leading timestamp.
func extractTimestamp(line string) (ts domain.Timestamp, rest string, ok bool) {
	m := timestampPattern.FindStringSubmatch(line)
	if m == nil {
		return domain.Timestamp{}, "", false
	}

	ts = domain.NewTimestamp(m[1] + " " + m[2])
	rest = strings.TrimLeft(line[len(m[1])+1+len(m[2]):], " \t")
	return ts, rest, true
}
