package lightsql

import "strings"

// keyword is an upper-case phrase of one or more words, e.g. {"GROUP", "BY"}.
type keyword []string

func newKeyword(phrase string) keyword {
	return keyword(strings.Fields(strings.ToUpper(phrase)))
}

// Keywords shared by the extractors.
var (
	kwAll         = newKeyword("ALL")
	kwAs          = newKeyword("AS")
	kwDistinct    = newKeyword("DISTINCT")
	kwFrom        = newKeyword("FROM")
	kwGroupBy     = newKeyword("GROUP BY")
	kwHaving      = newKeyword("HAVING")
	kwIfExists    = newKeyword("IF EXISTS")
	kwIfNotExists = newKeyword("IF NOT EXISTS")
	kwInto        = newKeyword("INTO")
	kwLimit       = newKeyword("LIMIT")
	kwOn          = newKeyword("ON")
	kwOnDuplicate = newKeyword("ON DUPLICATE KEY UPDATE")
	kwOrderBy     = newKeyword("ORDER BY")
	kwReturning   = newKeyword("RETURNING")
	kwSet         = newKeyword("SET")
	kwTable       = newKeyword("TABLE")
	kwUnion       = newKeyword("UNION")
	kwUnionAll    = newKeyword("UNION ALL")
	kwUnionDist   = newKeyword("UNION DISTINCT")
	kwWhere       = newKeyword("WHERE")
)

// match is one keyword occurrence: s[start:end] spans the whole phrase.
type match struct {
	start int
	end   int
}

// matchAt reports where k ends if it starts exactly at s[i], or -1.
// Every word must stand alone: "JOINED" does not match JOIN and
// "orders.join" does not either.
func (k keyword) matchAt(s string, i int) int {
	if len(k) == 0 || i > 0 && isWordByte(s[i-1]) {
		return -1
	}

	j := i
	for n, word := range k {
		if n > 0 {
			ws := j
			j = skipSpace(s, j)
			if j == ws {
				return -1
			}
		}
		if len(s)-j < len(word) || !strings.EqualFold(s[j:j+len(word)], word) {
			return -1
		}
		j += len(word)
		if j < len(s) && isWordByte(s[j]) {
			return -1
		}
	}
	return j
}

// findTopLevel returns the earliest occurrence at or after from of any of
// the keywords, ignoring everything nested inside parentheses. Depth is
// always counted from the start of s. When several keywords match at the
// same offset the first one listed wins.
func findTopLevel(s string, from int, keywords ...keyword) (match, bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
			continue
		case ')':
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth > 0 || i < from {
			continue
		}
		for _, k := range keywords {
			if end := k.matchAt(s, i); end >= 0 {
				return match{start: i, end: end}, true
			}
		}
	}
	return match{}, false
}

// findAllTopLevel returns every non-overlapping top-level occurrence of the keywords.
// The input is walked once.
func findAllTopLevel(s string, keywords ...keyword) []match {
	var matches []match
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
			continue
		case ')':
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth > 0 {
			continue
		}
		for _, k := range keywords {
			if end := k.matchAt(s, i); end >= 0 {
				matches = append(matches, match{start: i, end: end})
				i = end - 1
				break
			}
		}
	}
	return matches
}

// splitTopLevel splits s on sep bytes that are not nested inside parentheses.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// listEntries splits a comma list at top level and drops blank entries.
func listEntries(s string) []string {
	entries := make([]string, 0)
	for _, part := range splitTopLevel(s, ',') {
		if part = strings.TrimSpace(part); part != "" {
			entries = append(entries, part)
		}
	}
	return entries
}

// matchParen returns the index of the ')' closing the '(' at s[open], or -1
// when the input ends first.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// readIdent skips whitespace from i and reads one identifier token, which may
// be schema-qualified. It returns the token and the offset just past it. A
// token never starts with '(' and never contains separators, so derived tables
// and trailing punctuation yield an empty or clean identifier.
func readIdent(s string, i int) (string, int) {
	i = skipSpace(s, i)
	start := i
	for i < len(s) && !isSpace(s[i]) && !isIdentTerminator(s[i]) {
		i++
	}
	return s[start:i], i
}

// skipKeyword skips whitespace and then k if it is present at that point.
func skipKeyword(s string, i int, k keyword) int {
	j := skipSpace(s, i)
	if end := k.matchAt(s, j); end >= 0 {
		return end
	}
	return i
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

// lastTopLevelSpace returns the bounds of the last whitespace run at depth
// zero that has text on both sides, or ok == false.
func lastTopLevelSpace(s string) (start, end int, ok bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && isSpace(c) && i > 0:
			j := skipSpace(s, i)
			if j < len(s) {
				start, end, ok = i, j, true
			}
			i = j - 1
		}
	}
	return start, end, ok
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// isIdentByte reports whether c can appear in an unquoted identifier or keyword.
func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		c >= '0' && c <= '9' ||
		c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z'
}

// isWordByte extends isIdentByte with the qualifier dot for word boundaries.
func isWordByte(c byte) bool {
	return isIdentByte(c) || c == '.'
}

func isIdentTerminator(c byte) bool {
	return c == ',' || c == ';' || c == '(' || c == ')'
}

// isPlainIdent reports whether s is a single unqualified identifier.
func isPlainIdent(s string) bool {
	if s == "" || s[0] >= '0' && s[0] <= '9' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

// appendUnique appends the values not yet present in seen, in order.
func appendUnique(dst []string, seen map[string]struct{}, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
