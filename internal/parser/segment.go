package parser

import (
	"iter"
	"regexp"
	"strings"
)

var (
	ordinalMarker   = regexp.MustCompile(`^\d+\.`)
	emphasisMarkers = regexp.MustCompile("[*`]+")
)

// Segments yields one logical entry per listed item in text. Iterating the
// returned sequence again rescans the input from the start.
func Segments(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		var current strings.Builder
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(emphasisMarkers.ReplaceAllString(line, ""))
			if line == "" {
				continue
			}
			if ordinalMarker.MatchString(line) {
				if current.Len() > 0 {
					if !yield(current.String()) {
						return
					}
					current.Reset()
				}
				current.WriteString(line)
				continue
			}
			if current.Len() > 0 {
				current.WriteByte(' ')
			}
			current.WriteString(line)
		}
		if current.Len() > 0 {
			yield(current.String())
		}
	}
}
