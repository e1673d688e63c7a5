package lightsql

// TableRole says how a statement refers to a table.
type TableRole string

// Table roles.
const (
	// RolePrimary is the table the statement fundamentally operates on.
	RolePrimary TableRole = "primary"
	// RolePlain is any further member of a comma-separated FROM list.
	RolePlain TableRole = "plain"
	// RoleJoined is a table introduced by a join keyword.
	RoleJoined TableRole = "joined"
)

// TableRef is a table identifier together with its role.
type TableRef struct {
	Name string    `json:"name" yaml:"name"`
	Role TableRole `json:"role" yaml:"role"`
}

// tableRefs holds the tables of one statement, in order of appearance.
// Aliases are never recorded.
type tableRefs struct {
	primary    string
	hasPrimary bool
	plain      []string
	joined     []string
	hasJoin    bool
}

func (t *tableRefs) add(name string) {
	if name == "" {
		return
	}
	if !t.hasPrimary {
		t.primary, t.hasPrimary = name, true
		return
	}
	t.plain = append(t.plain, name)
}

// refs flattens the tables into role-tagged references without duplicates.
func (t *tableRefs) refs() []TableRef {
	refs := make([]TableRef, 0, 1+len(t.plain)+len(t.joined))
	seen := make(map[TableRef]struct{})
	push := func(name string, role TableRole) {
		ref := TableRef{Name: name, Role: role}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}

	if t.hasPrimary {
		push(t.primary, RolePrimary)
	}
	for _, name := range t.plain {
		push(name, RolePlain)
	}
	for _, name := range t.joined {
		push(name, RoleJoined)
	}
	return refs
}

// selectStops end the FROM list of a SELECT in addition to the join phrases.
var selectStops = []keyword{kwWhere, kwGroupBy, kwOrderBy, kwHaving, kwLimit}

// extractTables finds the tables referenced by stmt, which must already be
// classified as method.
func extractTables(stmt string, method Method, joins []keyword) tableRefs {
	var t tableRefs

	switch method {
	case MethodSelect:
		if from, ok := findTopLevel(stmt, 0, kwFrom); ok {
			stops := append(append([]keyword(nil), selectStops...), joins...)
			end := len(stmt)
			if m, ok := findTopLevel(stmt, from.end, stops...); ok {
				end = m.start
			}
			for _, entry := range listEntries(stmt[from.end:end]) {
				// First token is the table, the rest is an alias.
				name, _ := readIdent(entry, 0)
				t.add(name)
			}
		}

	case MethodInsert:
		if into, ok := findTopLevel(stmt, 0, kwInto); ok {
			name, _ := readIdent(stmt, into.end)
			t.add(name)
		}

	case MethodUpdate:
		name, _ := readIdent(stmt, afterMethod(stmt, method))
		t.add(name)

	case MethodDelete:
		if from, ok := findTopLevel(stmt, 0, kwFrom); ok {
			name, _ := readIdent(stmt, from.end)
			t.add(name)
		}

	case MethodCreateTable:
		i := skipKeyword(stmt, afterMethod(stmt, method), kwIfNotExists)
		name, _ := readIdent(stmt, i)
		t.add(name)

	case MethodCreateIndex:
		if on, ok := findTopLevel(stmt, 0, kwOn); ok {
			name, _ := readIdent(stmt, on.end)
			t.add(name)
		}

	case MethodDrop, MethodAlter:
		// Only DROP TABLE and ALTER TABLE name a table; DROP INDEX, DROP VIEW do not.
		i := skipSpace(stmt, afterMethod(stmt, method))
		if end := kwTable.matchAt(stmt, i); end >= 0 {
			name, _ := readIdent(stmt, skipKeyword(stmt, end, kwIfExists))
			t.add(name)
		}

	case MethodTruncate:
		name, _ := readIdent(stmt, skipKeyword(stmt, afterMethod(stmt, method), kwTable))
		t.add(name)
	}

	// UPDATE and DELETE accept MySQL-style multi-table joins too.
	t.joined, t.hasJoin = joinedTables(stmt, joins)
	return t
}

// joinedTables returns the identifier after every top-level join phrase.
// A join whose target is a derived table still counts for hasJoin.
func joinedTables(stmt string, joins []keyword) ([]string, bool) {
	matches := findAllTopLevel(stmt, joins...)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		if name, _ := readIdent(stmt, m.end); name != "" {
			tables = append(tables, name)
		}
	}
	return tables, len(matches) > 0
}

// afterMethod returns the offset just past the leading method keyword.
func afterMethod(stmt string, method Method) int {
	start := skipSpace(stmt, 0)
	if end := newKeyword(string(method)).matchAt(stmt, start); end >= 0 {
		return end
	}
	return start
}
