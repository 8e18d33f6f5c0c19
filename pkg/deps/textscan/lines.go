package textscan

import "strings"

// Line is one physical line of input without its line break.
type Line struct {
	No   int // 1-based line number
	Text string
}

// Lines splits text into lines, accepting both "\n" and "\r\n" breaks.
// A final line break does not produce an empty trailing line.
func Lines(text string) []Line {
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	if raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	lines := make([]Line, len(raw))
	for i, s := range raw {
		lines[i] = Line{No: i + 1, Text: strings.TrimSuffix(s, "\r")}
	}
	return lines
}

// Indent returns the number of leading spaces of s.
func Indent(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}
