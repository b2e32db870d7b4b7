package binding

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidPattern  = errors.New("invalid binding pattern")
	ErrMissingVariable = errors.New("missing binding variable")
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type segment struct {
	literal  string
	variable string
}

// Pattern is a blob path template such as "uploads/{name}" or "out/{name}-output.txt".
//
// The first path segment is always a literal container name. "{{" and "}}" are
// literal braces. When matching, every variable but the last is non-greedy and
// the last one is greedy; a variable never matches the empty string and may span "/".
type Pattern struct {
	raw       string
	container string
	segments  []segment
	vars      []string
	re        *regexp.Regexp
}

// Parse compiles a pattern string.
func Parse(s string) (*Pattern, error) {
	p := &Pattern{raw: s}

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			p.segments = append(p.segments, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	seen := make(map[string]bool)
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w %q: unclosed '{' at offset %d", ErrInvalidPattern, s, i)
			}
			name := s[i+1 : i+1+end]
			if !identRe.MatchString(name) {
				return nil, fmt.Errorf("%w %q: bad variable name %q", ErrInvalidPattern, s, name)
			}
			if seen[name] {
				return nil, fmt.Errorf("%w %q: duplicate variable %q", ErrInvalidPattern, s, name)
			}
			if lit.Len() == 0 && len(p.segments) > 0 && p.segments[len(p.segments)-1].variable != "" {
				return nil, fmt.Errorf("%w %q: adjacent variables", ErrInvalidPattern, s)
			}
			seen[name] = true
			flush()
			p.segments = append(p.segments, segment{variable: name})
			p.vars = append(p.vars, name)
			i += end + 2
		case c == '}':
			return nil, fmt.Errorf("%w %q: unmatched '}' at offset %d", ErrInvalidPattern, s, i)
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()

	if len(p.segments) == 0 || p.segments[0].variable != "" {
		return nil, fmt.Errorf("%w %q: must start with a container name", ErrInvalidPattern, s)
	}
	slash := strings.IndexByte(p.segments[0].literal, '/')
	if slash <= 0 {
		return nil, fmt.Errorf("%w %q: must start with a container name followed by '/'", ErrInvalidPattern, s)
	}
	p.container = p.segments[0].literal[:slash]

	var expr strings.Builder
	expr.WriteString(`(?s)^`)
	last := len(p.vars) - 1
	n := 0
	for _, seg := range p.segments {
		if seg.variable == "" {
			expr.WriteString(regexp.QuoteMeta(seg.literal))
			continue
		}
		if n == last {
			expr.WriteString(`(.+)`)
		} else {
			expr.WriteString(`(.+?)`)
		}
		n++
	}
	expr.WriteString(`$`)
	p.re = regexp.MustCompile(expr.String())

	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Pattern {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pattern) String() string { return p.raw }

// Container returns the literal container (bucket) the pattern lives in.
func (p *Pattern) Container() string { return p.container }

// Variables returns the variable names in order of appearance.
func (p *Pattern) Variables() []string {
	return append([]string(nil), p.vars...)
}

// Match reports whether path matches the pattern and returns the bound variables.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	vars := make(map[string]string, len(p.vars))
	for i, name := range p.vars {
		vars[name] = m[i+1]
	}
	return vars, true
}

// Resolve substitutes vars into the pattern.
func (p *Pattern) Resolve(vars map[string]string) (string, error) {
	var b strings.Builder
	for _, seg := range p.segments {
		if seg.variable == "" {
			b.WriteString(seg.literal)
			continue
		}
		v, ok := vars[seg.variable]
		if !ok {
			return "", fmt.Errorf("%w %q in %q", ErrMissingVariable, seg.variable, p.raw)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}
