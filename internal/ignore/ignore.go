// Package ignore reads an ignore file (gitignore syntax) that lists the
// entries of a scanned directory to leave out.
//
// Scans are non-recursive, so patterns are matched against base names only:
//   - "*", "?" and "[...]" wildcards; "**" behaves like "*"
//   - a leading "/" is accepted and has no further effect
//   - "name/" only matches directories, so it never excludes a file
//   - "!pattern" re-includes an earlier match; the last matching rule wins
//   - "#" starts a comment; "\#" and "\!" escape a leading "#" or "!"
package ignore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Matcher holds compiled ignore rules. It is immutable after Parse and safe
// for concurrent use.
type Matcher struct {
	rules []rule
}

type rule struct {
	pattern  string
	regex    *regexp.Regexp
	negation bool
	dirOnly  bool
}

// Parse compiles the rules in r.
func Parse(r io.Reader) (*Matcher, error) {
	m := &Matcher{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if rl, ok := compile(sc.Text()); ok {
			m.rules = append(m.rules, rl)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ignore rules: %w", err)
	}
	return m, nil
}

// ParseString compiles rules from a string.
func ParseString(content string) *Matcher {
	m, _ := Parse(strings.NewReader(content))
	return m
}

// Load reads the ignore file at path. A missing file yields an empty matcher.
func Load(path string) (*Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Matcher{}, nil
		}
		return nil, fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Len returns the number of rules.
func (m *Matcher) Len() int { return len(m.rules) }

// Match reports whether the entry name should be left out.
func (m *Matcher) Match(name string, isDir bool) bool {
	ignored := false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if r.regex.MatchString(name) {
			ignored = !r.negation
		}
	}
	return ignored
}

func compile(line string) (rule, bool) {
	// "\ " at the end keeps one trailing space
	keepSpace := strings.HasSuffix(line, `\ `)
	pattern := strings.TrimSpace(line)
	if pattern == "" || strings.HasPrefix(pattern, "#") {
		return rule{}, false
	}

	r := rule{pattern: pattern}

	switch {
	case strings.HasPrefix(pattern, `\#`), strings.HasPrefix(pattern, `\!`):
		pattern = pattern[1:]
	case strings.HasPrefix(pattern, "!"):
		r.negation = true
		pattern = pattern[1:]
	}

	if keepSpace && strings.HasSuffix(pattern, `\`) {
		pattern = strings.TrimSuffix(pattern, `\`) + " "
	}
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	pattern = strings.TrimPrefix(pattern, "/")
	if pattern == "" {
		return rule{}, false
	}

	r.regex = regexp.MustCompile("^" + toRegex(pattern) + "$")
	return r, true
}

// toRegex translates one glob into a regular expression over a base name.
func toRegex(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			for i+1 < len(pattern) && pattern[i+1] == '*' {
				i++
			}
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := pattern[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end + 1
		case '\\':
			if i+1 < len(pattern) {
				i++
				b.WriteString(regexp.QuoteMeta(string(pattern[i])))
			} else {
				b.WriteString(`\\`)
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}
