package lightsql

import "strings"

// assignmentStops end a SET list.
var assignmentStops = []keyword{kwWhere, kwOrderBy, kwLimit, kwOnDuplicate, kwReturning, kwFrom}

// nonAliasTails are words that can end a select expression without being an alias.
var nonAliasTails = map[string]struct{}{
	"END": {}, "NULL": {}, "TRUE": {}, "FALSE": {}, "ASC": {}, "DESC": {},
}

// operatorWords are words after which the next token is an operand, not an alias.
var operatorWords = map[string]struct{}{
	"AND": {}, "OR": {}, "NOT": {}, "IS": {}, "IN": {}, "LIKE": {}, "ILIKE": {},
	"BETWEEN": {}, "CASE": {}, "WHEN": {}, "THEN": {}, "ELSE": {}, "DISTINCT": {},
	"INTERVAL": {}, "SELECT": {},
}

// constraintWords start a CREATE TABLE entry that is not a column definition.
var constraintWords = map[string]struct{}{
	"PRIMARY": {}, "CONSTRAINT": {}, "UNIQUE": {}, "KEY": {}, "INDEX": {},
	"FOREIGN": {}, "CHECK": {}, "FULLTEXT": {}, "SPATIAL": {},
}

// extractFields returns the column or expression list of stmt in source order.
// Duplicates are kept.
func extractFields(stmt string, method Method) []string {
	switch method {
	case MethodSelect:
		return selectFields(stmt)
	case MethodInsert:
		return insertFields(stmt)
	case MethodUpdate:
		if set, ok := findTopLevel(stmt, 0, kwSet); ok {
			return assignmentTargets(stmt, set.end)
		}
	case MethodCreateTable:
		return createTableColumns(stmt)
	case MethodCreateIndex:
		return indexColumns(stmt)
	}
	return []string{}
}

func selectFields(stmt string) []string {
	start := afterMethod(stmt, MethodSelect)
	end := len(stmt)
	if from, ok := findTopLevel(stmt, start, kwFrom); ok {
		end = from.start
	}

	list := stmt[start:end]
	for _, k := range []keyword{kwDistinct, kwAll} {
		if e := k.matchAt(list, skipSpace(list, 0)); e >= 0 {
			list = list[e:]
			break
		}
	}

	entries := listEntries(list)
	fields := make([]string, 0, len(entries))
	for _, entry := range entries {
		fields = append(fields, stripAlias(entry))
	}
	return fields
}

// stripAlias drops "AS alias" or a bare trailing alias from a select entry.
func stripAlias(entry string) string {
	if as, ok := findTopLevel(entry, 0, kwAs); ok {
		if expr := strings.TrimSpace(entry[:as.start]); expr != "" {
			return expr
		}
		return entry
	}

	start, end, ok := lastTopLevelSpace(entry)
	if !ok {
		return entry
	}
	head := strings.TrimSpace(entry[:start])
	tail := entry[end:]
	if !isPlainIdent(tail) || head == "" {
		return entry
	}
	if _, reserved := nonAliasTails[strings.ToUpper(tail)]; reserved {
		return entry
	}

	// The alias must follow a complete operand: an identifier or a closing paren.
	last := head[len(head)-1]
	if !isIdentByte(last) && last != ')' && last != '*' {
		return entry
	}
	if _, op := operatorWords[strings.ToUpper(lastWord(head))]; op {
		return entry
	}
	return head
}

// lastWord returns the trailing run of word bytes of s.
func lastWord(s string) string {
	i := len(s)
	for i > 0 && isWordByte(s[i-1]) {
		i--
	}
	return s[i:]
}

func insertFields(stmt string) []string {
	into, ok := findTopLevel(stmt, 0, kwInto)
	if !ok {
		return []string{}
	}
	_, after := readIdent(stmt, into.end)
	i := skipSpace(stmt, after)

	if i < len(stmt) && stmt[i] == '(' {
		return parenEntries(stmt, i)
	}
	if end := kwSet.matchAt(stmt, i); end >= 0 {
		return assignmentTargets(stmt, end)
	}
	return []string{}
}

// assignmentTargets returns the left-hand sides of "col = value" pairs that
// start at from.
func assignmentTargets(stmt string, from int) []string {
	end := len(stmt)
	if m, ok := findTopLevel(stmt, from, assignmentStops...); ok {
		end = m.start
	}

	targets := make([]string, 0)
	for _, entry := range listEntries(stmt[from:end]) {
		eq := strings.IndexByte(entry, '=')
		if eq < 0 {
			continue
		}
		if target := strings.TrimSpace(entry[:eq]); target != "" {
			targets = append(targets, target)
		}
	}
	return targets
}

func createTableColumns(stmt string) []string {
	i := skipKeyword(stmt, afterMethod(stmt, MethodCreateTable), kwIfNotExists)
	_, after := readIdent(stmt, i)
	i = skipSpace(stmt, after)
	if i >= len(stmt) || stmt[i] != '(' {
		return []string{}
	}

	columns := make([]string, 0)
	for _, entry := range parenEntries(stmt, i) {
		name, _ := readIdent(entry, 0)
		if _, constraint := constraintWords[strings.ToUpper(name)]; constraint || name == "" {
			continue
		}
		columns = append(columns, name)
	}
	return columns
}

func indexColumns(stmt string) []string {
	on, ok := findTopLevel(stmt, 0, kwOn)
	if !ok {
		return []string{}
	}
	_, after := readIdent(stmt, on.end)
	i := skipSpace(stmt, after)
	if i >= len(stmt) || stmt[i] != '(' {
		return []string{}
	}

	columns := make([]string, 0)
	for _, entry := range parenEntries(stmt, i) {
		if name, _ := readIdent(entry, 0); name != "" {
			columns = append(columns, name)
		}
	}
	return columns
}

// parenEntries lists the comma entries inside the parenthesis opened at
// stmt[open]. An unclosed list runs to the end of the statement.
func parenEntries(stmt string, open int) []string {
	end := matchParen(stmt, open)
	if end < 0 {
		end = len(stmt)
	}
	return listEntries(stmt[open+1 : end])
}
