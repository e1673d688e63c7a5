package lightsql

// Parser holds one query and lazily derives everything else from it.
//
// The normalized text and the statement list are computed on first access
// and cached until the next SetQuery. Per-statement analysis is cached on the
// statement itself. All accessors return fresh slices, so callers may modify
// what they get without affecting later calls.
type Parser struct {
	opts  Options
	joins []keyword
	query string
	cache *derived // nil until first access, reset by SetQuery
}

// derived is everything computed from one query.
type derived struct {
	normalized string
	statements []*statement
}

// statement is one split statement with its extraction results.
type statement struct {
	text     string
	analyzed bool

	method     Method
	tables     tableRefs
	fields     []string
	subQueries []string
}

// New creates a parser for query with DefaultOptions.
func New(query string) *Parser {
	return NewWithOptions(query, DefaultOptions())
}

// NewWithOptions creates a parser for query.
func NewWithOptions(query string, opts Options) *Parser {
	return &Parser{
		opts:  opts,
		joins: opts.joinKeywords(),
		query: query,
	}
}

// SetQuery replaces the query and drops every derived result.
// It returns the parser so calls can be chained.
func (p *Parser) SetQuery(query string) *Parser {
	p.query = query
	p.cache = nil
	return p
}

// Query returns the query exactly as it was set.
func (p *Parser) Query() string {
	return p.query
}

// Options returns the options the parser was created with.
func (p *Parser) Options() Options {
	return p.opts
}

// Normalized returns the query without comments and quoting characters.
func (p *Parser) Normalized() string {
	return p.derive().normalized
}

// Statements returns the statement texts in order of appearance.
func (p *Parser) Statements() []string {
	stmts := p.derive().statements
	texts := make([]string, len(stmts))
	for i, st := range stmts {
		texts[i] = st.text
	}
	return texts
}

// Method returns the method of the first statement, or MethodNone.
func (p *Parser) Method() Method {
	if st := p.first(); st != nil {
		return st.method
	}
	return MethodNone
}

// Fields returns the fields of the first statement in source order.
// Unlike the table and subquery collections, duplicates are kept.
func (p *Parser) Fields() []string {
	if st := p.first(); st != nil {
		return append([]string{}, st.fields...)
	}
	return []string{}
}

// Table returns the primary table of the first statement.
// ok is false when there is no statement or no table could be determined.
func (p *Parser) Table() (table string, ok bool) {
	if st := p.first(); st != nil && st.tables.hasPrimary {
		return st.tables.primary, true
	}
	return "", false
}

// AllTables returns every primary, FROM-list and joined table across all
// statements, without duplicates, in first-seen order.
func (p *Parser) AllTables() []string {
	tables := make([]string, 0)
	seen := make(map[string]struct{})
	for _, st := range p.analyzed() {
		if st.tables.hasPrimary {
			tables = appendUnique(tables, seen, st.tables.primary)
		}
		tables = appendUnique(tables, seen, st.tables.plain...)
		tables = appendUnique(tables, seen, st.tables.joined...)
	}
	return tables
}

// JoinTables returns the tables introduced by a join keyword across all
// statements, without duplicates.
func (p *Parser) JoinTables() []string {
	tables := make([]string, 0)
	seen := make(map[string]struct{})
	for _, st := range p.analyzed() {
		tables = appendUnique(tables, seen, st.tables.joined...)
	}
	return tables
}

// HasJoin reports whether any statement contains a top-level join.
func (p *Parser) HasJoin() bool {
	for _, st := range p.analyzed() {
		if st.tables.hasJoin {
			return true
		}
	}
	return false
}

// SubQueries returns the distinct subqueries of all statements.
func (p *Parser) SubQueries() []string {
	subQueries := make([]string, 0)
	seen := make(map[string]struct{})
	for _, st := range p.analyzed() {
		subQueries = appendUnique(subQueries, seen, st.subQueries...)
	}
	return subQueries
}

// HasSubQuery reports whether any statement contains a subquery.
func (p *Parser) HasSubQuery() bool {
	for _, st := range p.analyzed() {
		if len(st.subQueries) > 0 {
			return true
		}
	}
	return false
}

// derive computes the normalized text and statement list once per query.
func (p *Parser) derive() *derived {
	if p.cache != nil {
		return p.cache
	}

	normalized := NormalizeWithOptions(p.query, p.opts)
	texts := Split(normalized)
	stmts := make([]*statement, len(texts))
	for i, text := range texts {
		stmts[i] = &statement{text: text}
	}

	p.cache = &derived{normalized: normalized, statements: stmts}
	return p.cache
}

// first returns the analyzed first statement, or nil.
func (p *Parser) first() *statement {
	stmts := p.derive().statements
	if len(stmts) == 0 {
		return nil
	}
	return p.analyze(stmts[0])
}

// analyzed returns every statement with its extraction results filled in.
func (p *Parser) analyzed() []*statement {
	stmts := p.derive().statements
	for _, st := range stmts {
		p.analyze(st)
	}
	return stmts
}

func (p *Parser) analyze(st *statement) *statement {
	if st.analyzed {
		return st
	}
	st.method = Classify(st.text)
	st.tables = extractTables(st.text, st.method, p.joins)
	st.fields = extractFields(st.text, st.method)
	st.subQueries = extractSubQueries(st.text)
	st.analyzed = true
	return st
}
