// Package lightsql extracts shallow structural metadata from raw SQL text.
//
// It does not build a syntax tree. A handful of scanning rules that agree on
// quote, parenthesis and statement boundaries are enough to answer:
//   - what kind of command a statement is (SELECT, INSERT, CREATE TABLE, ...)
//   - which tables it reads or writes, and which of them are joined
//   - which columns it selects, inserts or assigns
//   - which parenthesized spans are themselves SELECT statements
//
// Malformed input never produces an error. It degrades to empty or absent
// results, so callers can feed arbitrary user text to a Parser.
//
// A Parser is not safe for concurrent use; use one Parser per goroutine.
package lightsql
