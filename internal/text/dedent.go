// Package text provides small text manipulation helpers used to keep
// CLI help text readable in source while rendering without leading
// indentation.
package text

import "strings"

// Dedent removes a common indent from all lines in a string, so CLI
// Help() methods can write their text indented to match the
// surrounding Go code. The common indent is taken from the first
// non-blank line; lines missing that prefix are reproduced as is,
// except a blank last line, which is dropped.
func Dedent(s string) string {
	lines := strings.Split(s, "\n")

	indent, found := commonIndent(lines)
	if !found {
		return strings.TrimLeft(s, " \t")
	}

	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		trimmed, ok := strings.CutPrefix(line, indent)
		if !ok {
			trimmed = line
		}
		if i == len(lines)-1 && strings.TrimSpace(trimmed) == "" {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}

// commonIndent returns the leading whitespace of the first non-blank
// line, or false if every line is blank.
func commonIndent(lines []string) (string, bool) {
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		end := strings.IndexFunc(line, func(r rune) bool {
			return r != ' ' && r != '\t'
		})
		if end == -1 {
			end = len(line)
		}
		return line[:end], true
	}
	return "", false
}
