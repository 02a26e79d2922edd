// Package frontmatter encodes and decodes the flat key/value block that
// prefixes every record file:
//
//	---
//	title: Attack on Titan
//	chapters: 34
//	---
//
//	body text
//
// Values are single-line strings. Reserved characters are escaped so that any
// value survives a round trip; the body is stored verbatim.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const delim = "---"

var (
	// ErrNoFrontmatter is returned when the text has no opening delimiter line.
	ErrNoFrontmatter = errors.New("frontmatter: no opening delimiter")
	// ErrUnterminated is returned when the opening delimiter has no matching close.
	ErrUnterminated = errors.New("frontmatter: missing closing delimiter")
)

// Field is one key/value pair of a block. Order is preserved on encode.
type Field struct {
	Key   string
	Value string
}

// Document is the decoded form of a record file.
type Document struct {
	Meta map[string]string
	Keys []string
	Body string
}

// String returns the value for key and whether the key was present.
func (d *Document) String(key string) (string, bool) {
	if d == nil || d.Meta == nil {
		return "", false
	}
	v, ok := d.Meta[key]
	return v, ok
}

// Int returns the integer value for key. ok is false when the key is missing
// or the value is not a base-10 integer.
func (d *Document) Int(key string) (int, bool) {
	s, ok := d.String(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Int64 is like Int for 64-bit values such as millisecond timestamps.
func (d *Document) Int64(key string) (int64, bool) {
	s, ok := d.String(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

type encodeOptions struct {
	blankLine bool
}

// EncodeOption customises Encode.
type EncodeOption func(*encodeOptions)

// WithBlankLine separates the closing delimiter from the body with an empty line.
func WithBlankLine() EncodeOption {
	return func(o *encodeOptions) { o.blankLine = true }
}

// Encode renders fields and body as a record file. Values are escaped, keys
// are written as given.
func Encode(fields []Field, body string, opts ...EncodeOption) []byte {
	var o encodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	for _, f := range fields {
		buf.WriteString(f.Key)
		buf.WriteString(": ")
		buf.WriteString(Escape(f.Value))
		buf.WriteByte('\n')
	}
	buf.WriteString(delim + "\n")
	if o.blankLine {
		buf.WriteByte('\n')
	}
	buf.WriteString(body)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// Decode splits data into metadata and body.
//
// The block opens at the first line that is exactly "---" and closes at the
// first "---" line after the first non-empty line that follows the opening.
// Metadata lines are split on the first colon; lines without one are skipped.
// When there is no opening delimiter the returned document holds the whole
// text as body together with ErrNoFrontmatter.
func Decode(data []byte) (*Document, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	open := -1
	for i, line := range lines {
		if isDelim(line) {
			open = i
			break
		}
	}
	if open < 0 {
		return &Document{Meta: map[string]string{}, Body: strings.TrimSpace(text)}, ErrNoFrontmatter
	}

	first := open + 1
	for first < len(lines) && strings.TrimSpace(lines[first]) == "" {
		first++
	}
	closing := -1
	for i := first + 1; i < len(lines); i++ {
		if isDelim(lines[i]) {
			closing = i
			break
		}
	}
	if first >= len(lines) || closing < 0 {
		return nil, ErrUnterminated
	}

	doc := &Document{Meta: make(map[string]string)}
	for _, line := range lines[open+1 : closing] {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, seen := doc.Meta[key]; !seen {
			doc.Keys = append(doc.Keys, key)
		}
		doc.Meta[key] = Unescape(strings.TrimSpace(value))
	}
	doc.Body = strings.TrimSpace(strings.Join(lines[closing+1:], "\n"))
	return doc, nil
}

func isDelim(line string) bool {
	return strings.TrimRight(line, " \t\r") == delim
}

// Escape makes s safe to store as a single-line value. Backslash, colon and
// line breaks are escaped everywhere; whitespace at either end of s is
// escaped as well (\s, \t or \uXXXX) so Decode's trimming cannot drop it.
func Escape(s string) string {
	lead := len(s) - len(strings.TrimLeftFunc(s, unicode.IsSpace))
	trail := len(strings.TrimRightFunc(s, unicode.IsSpace))
	if lead == 0 && trail == len(s) && !strings.ContainsAny(s, "\\:\n\r") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i, r := range s {
		edge := i < lead || i >= trail
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == ':':
			b.WriteString(`\:`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case edge && r == ' ':
			b.WriteString(`\s`)
		case edge && r == '\t':
			b.WriteString(`\t`)
		case edge && unicode.IsSpace(r):
			fmt.Fprintf(&b, `\u%04X`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// token is one decoded unit of an escaped value.
type token struct {
	text  string // decoded text when not at an edge
	edge  string // decoded text at an edge; empty when same as text
	space bool
}

// Unescape reverses Escape. The whitespace escapes \s, \t and \uXXXX are
// only recognised in the leading and trailing runs of whitespace, where
// Escape emits them; elsewhere, like any unknown sequence, they are kept as
// written.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	toks := make([]token, 0, len(s))
	for i := 0; i < len(s); {
		if s[i] != '\\' || i+1 == len(s) {
			r, size := utf8.DecodeRuneInString(s[i:])
			toks = append(toks, token{text: s[i : i+size], space: unicode.IsSpace(r)})
			i += size
			continue
		}
		switch s[i+1] {
		case '\\':
			toks = append(toks, token{text: `\`})
		case ':':
			toks = append(toks, token{text: ":"})
		case 'n':
			toks = append(toks, token{text: "\n", space: true})
		case 'r':
			toks = append(toks, token{text: "\r", space: true})
		case 's':
			toks = append(toks, token{text: `\s`, edge: " ", space: true})
		case 't':
			toks = append(toks, token{text: `\t`, edge: "\t", space: true})
		case 'u':
			if r, ok := hexSpace(s[i+2:]); ok {
				toks = append(toks, token{text: s[i : i+6], edge: string(r), space: true})
				i += 6
				continue
			}
			toks = append(toks, token{text: `\u`})
		default:
			toks = append(toks, token{text: s[i : i+2]})
		}
		i += 2
	}

	lead := 0
	for lead < len(toks) && toks[lead].space {
		lead++
	}
	trail := len(toks)
	for trail > lead && toks[trail-1].space {
		trail--
	}
	var b strings.Builder
	b.Grow(len(s))
	for i, t := range toks {
		if t.edge != "" && (i < lead || i >= trail) {
			b.WriteString(t.edge)
			continue
		}
		b.WriteString(t.text)
	}
	return b.String()
}

// hexSpace parses the four hex digits of a \u escape naming a whitespace rune.
func hexSpace(s string) (rune, bool) {
	if len(s) < 4 {
		return 0, false
	}
	n, err := strconv.ParseUint(s[:4], 16, 32)
	if err != nil || !unicode.IsSpace(rune(n)) {
		return 0, false
	}
	return rune(n), true
}
