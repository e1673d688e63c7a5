package lightsql

import "strings"

// Split divides normalized text into independent statements.
//
// A statement ends at every top-level ';' and at every top-level UNION,
// optionally followed by ALL or DISTINCT. The set-operation keywords belong to neither side. Anything
// inside parentheses is left alone, so a subquery containing UNION stays in
// one piece. Statements are trimmed and empty segments are skipped, which
// makes ";;;" or a comment-only input yield no statements at all.
func Split(normalized string) []string {
	statements := make([]string, 0)
	depth, start := 0, 0

	emit := func(end int) {
		if stmt := strings.TrimSpace(normalized[start:end]); stmt != "" {
			statements = append(statements, stmt)
		}
	}

	for i := 0; i < len(normalized); i++ {
		switch c := normalized[i]; {
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case c == ';':
			emit(i)
			start = i + 1
		case c == 'u' || c == 'U':
			end := kwUnionAll.matchAt(normalized, i)
			if end < 0 {
				end = kwUnionDist.matchAt(normalized, i)
			}
			if end < 0 {
				end = kwUnion.matchAt(normalized, i)
			}
			if end < 0 {
				continue
			}
			emit(i)
			start = end
			i = end - 1
		}
	}
	emit(len(normalized))

	return statements
}
