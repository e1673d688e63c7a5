package lightsql

// Report is a serializable snapshot of every accessor of a Parser.
// Table is nil when no primary table could be determined.
type Report struct {
	Query       string            `json:"query" yaml:"query"`
	Method      Method            `json:"method" yaml:"method"`
	Table       *string           `json:"table" yaml:"table"`
	Fields      []string          `json:"fields" yaml:"fields"`
	Tables      []string          `json:"tables" yaml:"tables"`
	JoinTables  []string          `json:"join_tables" yaml:"join_tables"`
	HasJoin     bool              `json:"has_join" yaml:"has_join"`
	HasSubQuery bool              `json:"has_subquery" yaml:"has_subquery"`
	SubQueries  []string          `json:"subqueries" yaml:"subqueries"`
	Statements  []StatementReport `json:"statements" yaml:"statements"`
}

// StatementReport describes one statement of a Report.
type StatementReport struct {
	Index      int        `json:"index" yaml:"index"`
	Text       string     `json:"text" yaml:"text"`
	Method     Method     `json:"method" yaml:"method"`
	Table      *string    `json:"table" yaml:"table"`
	Fields     []string   `json:"fields" yaml:"fields"`
	References []TableRef `json:"references" yaml:"references"`
	JoinTables []string   `json:"join_tables" yaml:"join_tables"`
	HasJoin    bool       `json:"has_join" yaml:"has_join"`
	SubQueries []string   `json:"subqueries" yaml:"subqueries"`
}

// Analyze builds a Report from the current query.
func (p *Parser) Analyze() *Report {
	rep := &Report{
		Query:       p.query,
		Method:      p.Method(),
		Fields:      p.Fields(),
		Tables:      p.AllTables(),
		JoinTables:  p.JoinTables(),
		HasJoin:     p.HasJoin(),
		HasSubQuery: p.HasSubQuery(),
		SubQueries:  p.SubQueries(),
	}
	if table, ok := p.Table(); ok {
		rep.Table = &table
	}

	stmts := p.analyzed()
	rep.Statements = make([]StatementReport, len(stmts))
	for i, st := range stmts {
		sr := StatementReport{
			Index:      i,
			Text:       st.text,
			Method:     st.method,
			Fields:     append([]string{}, st.fields...),
			References: st.tables.refs(),
			JoinTables: appendUnique(make([]string, 0), make(map[string]struct{}), st.tables.joined...),
			HasJoin:    st.tables.hasJoin,
			SubQueries: appendUnique(make([]string, 0), make(map[string]struct{}), st.subQueries...),
		}
		if st.tables.hasPrimary {
			primary := st.tables.primary
			sr.Table = &primary
		}
		rep.Statements[i] = sr
	}
	return rep
}

// TableNames returns the distinct table names of the statement, in order.
func (s StatementReport) TableNames() []string {
	names := make([]string, 0, len(s.References))
	seen := make(map[string]struct{})
	for _, ref := range s.References {
		names = appendUnique(names, seen, ref.Name)
	}
	return names
}
