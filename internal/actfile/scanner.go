// Package actfile reads and rewrites Open Rails activity files.
//
// Activity files use a nested "Key ( ... )" grammar. The scanner locates
// groups by matching brackets, skipping quoted strings, so edits never depend
// on the layout of the file.
package actfile

import (
	"fmt"
	"strings"
)

// Group is one "Key ( ... )" region of a document. Offsets are byte offsets
// into the scanned text.
type Group struct {
	Key   string
	Start int // offset of the key, or of '(' for unkeyed groups
	Open  int // offset of '('
	End   int // offset just past the matching ')'
	Depth int
}

// Inner returns the text between the group's brackets
func (g Group) Inner(text string) string {
	return text[g.Open+1 : g.End-1]
}

// Contains reports whether o is nested inside g
func (g Group) Contains(o Group) bool {
	return o.Open > g.Open && o.End <= g.End
}

// Scan returns every group in text in document order.
// It fails on unbalanced brackets or an unterminated string.
func Scan(text string) ([]Group, error) {
	var (
		groups    []Group
		stack     []int
		wordStart = -1
		wordEnd   = -1
	)

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			j := i + 1
			for j < len(text) && text[j] != '"' {
				if text[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(text) {
				return nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			i = j
			wordStart = -1

		case c == '(':
			g := Group{Start: i, Open: i, Depth: len(stack)}
			if wordStart >= 0 {
				g.Key = text[wordStart:wordEnd]
				g.Start = wordStart
			}
			groups = append(groups, g)
			stack = append(stack, len(groups)-1)
			wordStart = -1

		case c == ')':
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced ')' at offset %d", i)
			}
			groups[stack[len(stack)-1]].End = i + 1
			stack = stack[:len(stack)-1]
			wordStart = -1

		case isSpace(c):

		default:
			j := i
			for j < len(text) && !isDelim(text[j]) {
				j++
			}
			wordStart, wordEnd = i, j
			i = j - 1
		}
	}

	if len(stack) > 0 {
		g := groups[stack[len(stack)-1]]
		return nil, fmt.Errorf("group %q opened at offset %d is never closed", g.Key, g.Open)
	}
	return groups, nil
}

// First returns the first group named key (case-insensitive) accepted by match.
// A nil match accepts any group.
func First(text string, groups []Group, key string, match func(inner string) bool) (Group, bool) {
	for _, g := range groups {
		if !strings.EqualFold(g.Key, key) {
			continue
		}
		if match == nil || match(g.Inner(text)) {
			return g, true
		}
	}
	return Group{}, false
}

// Children returns the groups directly nested in parent
func Children(groups []Group, parent Group) []Group {
	var out []Group
	for _, g := range groups {
		if g.Depth == parent.Depth+1 && parent.Contains(g) {
			out = append(out, g)
		}
	}
	return out
}

// Child returns the first direct child of parent named key
func Child(groups []Group, parent Group, key string) (Group, bool) {
	for _, g := range Children(groups, parent) {
		if strings.EqualFold(g.Key, key) {
			return g, true
		}
	}
	return Group{}, false
}

// Descendant returns the first group nested at any depth in parent named key
func Descendant(groups []Group, parent Group, key string) (Group, bool) {
	for _, g := range groups {
		if parent.Contains(g) && strings.EqualFold(g.Key, key) {
			return g, true
		}
	}
	return Group{}, false
}

// Unquote parses a group value made of one or more quoted strings joined by
// '+'. It reports false when the value is not a quoted string.
func Unquote(inner string) (string, bool) {
	s := strings.TrimSpace(inner)
	if s == "" || s[0] != '"' {
		return "", false
	}

	var b strings.Builder
	for {
		if s == "" || s[0] != '"' {
			return "", false
		}
		i := 1
		for ; i < len(s) && s[i] != '"'; i++ {
			if s[i] != '\\' || i+1 >= len(s) {
				b.WriteByte(s[i])
				continue
			}
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(s[i])
			}
		}
		if i >= len(s) {
			return "", false
		}
		s = strings.TrimSpace(s[i+1:])
		if s == "" {
			return b.String(), true
		}
		if s[0] != '+' {
			return "", false
		}
		s = strings.TrimSpace(s[1:])
	}
}

// Quote renders s as a quoted string value
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}

// Value returns a group value as text: the unquoted string when quoted,
// otherwise the trimmed raw value
func Value(inner string) string {
	if s, ok := Unquote(inner); ok {
		return s
	}
	return strings.TrimSpace(inner)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isDelim(c byte) bool {
	return isSpace(c) || c == '(' || c == ')' || c == '"'
}
