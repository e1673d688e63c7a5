package lightsql

import "strings"

// extractSubQueries returns the inner text of every parenthesis pair whose
// content is a SELECT statement, outermost first. Nested subqueries are
// reported on their own as well. A '(' without a matching ')' is skipped and
// scanning continues after it.
func extractSubQueries(stmt string) []string {
	subQueries := make([]string, 0)
	for open := strings.IndexByte(stmt, '('); open >= 0; {
		if end := matchParen(stmt, open); end >= 0 {
			inner := strings.TrimSpace(stmt[open+1 : end])
			if Classify(inner) == MethodSelect {
				subQueries = append(subQueries, inner)
			}
		}

		next := strings.IndexByte(stmt[open+1:], '(')
		if next < 0 {
			break
		}
		open += 1 + next
	}
	return subQueries
}
