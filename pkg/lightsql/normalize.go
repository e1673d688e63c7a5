package lightsql

import "strings"

// Normalize removes block comments and every quoting character from s.
//
// Block comments (/* ... */) are removed together with their content; an
// unterminated comment consumes the rest of the input. Backticks, single
// quotes and double quotes are dropped wherever they appear, paired or not.
// All other bytes keep their relative order.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return normalize(s, false)
}

// NormalizeWithOptions is Normalize with the line-comment switch of opts applied.
func NormalizeWithOptions(s string, opts Options) string {
	return normalize(s, opts.LineComments)
}

// normalize repeats single passes until nothing changes. A pass only ever
// removes bytes, so a removal that glues "/" and "*" together is cleaned up
// by the next pass and the loop always terminates.
func normalize(s string, lineComments bool) string {
	for {
		n := &normalizer{input: s, lineComments: lineComments}
		next := n.run()
		if next == s {
			return next
		}
		s = next
	}
}

// normalizer is a single left-to-right pass over the input.
type normalizer struct {
	input        string
	pos          int
	lineComments bool
	out          strings.Builder
}

func (n *normalizer) run() string {
	n.out.Grow(len(n.input))
	for n.pos < len(n.input) {
		ch := n.input[n.pos]
		switch {
		case ch == '/' && n.peek() == '*':
			n.skipBlockComment()
		case ch == '-' && n.lineComments && n.peek() == '-':
			n.skipLineComment()
		case isQuote(ch):
			n.pos++
		default:
			n.out.WriteByte(ch)
			n.pos++
		}
	}
	return n.out.String()
}

// peek returns the byte after the current one, or 0 at end of input.
func (n *normalizer) peek() byte {
	if n.pos+1 >= len(n.input) {
		return 0
	}
	return n.input[n.pos+1]
}

func (n *normalizer) skipBlockComment() {
	end := strings.Index(n.input[n.pos+2:], "*/")
	if end < 0 {
		// Unterminated block comment
		n.pos = len(n.input)
		return
	}
	n.pos += 2 + end + 2
}

// skipLineComment stops at the newline so statements on separate lines stay separated.
func (n *normalizer) skipLineComment() {
	end := strings.IndexByte(n.input[n.pos:], '\n')
	if end < 0 {
		n.pos = len(n.input)
		return
	}
	n.pos += end
}

func isQuote(ch byte) bool {
	return ch == '`' || ch == '\'' || ch == '"'
}
