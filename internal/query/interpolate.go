package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// literalEscaper escapes the characters that would break a JSON/string
// literal if the template were rendered inside one.
var literalEscaper = strings.NewReplacer(
	"\n", `\n`,
	`"`, `\"`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// placeholderPattern matches {name}; the lazy quantifier keeps adjacent
// placeholders apart.
var placeholderPattern = regexp.MustCompile(`\{([\s\S]+?)\}`)

// Interpolator renders an endpoint template with per-call values.
type Interpolator struct {
	template string
	escaped  string
}

// NewURLInterpolator prepares template for repeated interpolation. The static
// text is literal-escaped here, once.
func NewURLInterpolator(template string) Interpolator {
	return Interpolator{
		template: template,
		escaped:  literalEscaper.Replace(template),
	}
}

// Template returns the raw template.
func (i Interpolator) Template() string {
	return i.template
}

// Interpolate substitutes every {name} placeholder with the URI-component
// encoding of values[name]. Absent and empty values (nil, "", false, 0,
// zero time) render as the empty string.
func (i Interpolator) Interpolate(values map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(i.escaped, func(match string) string {
		name := match[1 : len(match)-1]
		return EncodeURIComponent(stringify(values[name]))
	})
}

// Placeholders returns the placeholder names in template order.
func (i Interpolator) Placeholders() []string {
	matches := placeholderPattern.FindAllStringSubmatch(i.escaped, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Interpolate is a one-shot helper for NewURLInterpolator(template).Interpolate(values).
func Interpolate(template string, values map[string]any) string {
	return NewURLInterpolator(template).Interpolate(values)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if !val {
			return ""
		}
		return "true"
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return strconv.FormatInt(val.UnixMilli(), 10)
	}

	if f, ok := ToFloat(v); ok {
		if f == 0 {
			return ""
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

// EncodeURIComponent percent-encodes s, leaving only the unreserved characters
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) as is.
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
