package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/lightsql/internal/cli/output"
	"github.com/leapstack-labs/lightsql/internal/history"
	"github.com/leapstack-labs/lightsql/internal/scan"
	"github.com/leapstack-labs/lightsql/pkg/lightsql"
)

// maxSnippet is the widest statement shown in a table cell.
const maxSnippet = 60

// snippet collapses whitespace and truncates s for single-line display.
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxSnippet {
		return s
	}
	return s[:maxSnippet-3] + "..."
}

func methodLabel(m lightsql.Method) string {
	if m == lightsql.MethodNone {
		return "(none)"
	}
	return m.String()
}

func tableLabel(table *string) string {
	if table == nil {
		return "(none)"
	}
	return *table
}

// renderReport prints a full analysis.
func renderReport(r *output.Renderer, rep *lightsql.Report) error {
	if handled, err := r.Data(rep); handled {
		return err
	}

	r.Header(1, "Analysis")
	r.KeyValues(reportSummary(rep))

	if len(rep.Statements) > 1 {
		if r.EffectiveMode() != output.ModeMarkdown {
			r.Println("")
		}
		r.Header(2, fmt.Sprintf("Statements (%d)", len(rep.Statements)))
		r.Table([]string{"#", "Method", "Table", "Statement"}, statementRows(rep))
	}
	return nil
}

func reportSummary(rep *lightsql.Report) []output.KeyValue {
	return []output.KeyValue{
		{Key: "Method", Value: methodLabel(rep.Method)},
		{Key: "Table", Value: tableLabel(rep.Table)},
		{Key: "Fields", Value: output.FormatList(rep.Fields)},
		{Key: "Tables", Value: output.FormatList(rep.Tables)},
		{Key: output.Title("join tables"), Value: output.FormatList(rep.JoinTables)},
		{Key: output.Title("has join"), Value: output.YesNo(rep.HasJoin)},
		{Key: "Subqueries", Value: strconv.Itoa(len(rep.SubQueries))},
		{Key: "Statements", Value: strconv.Itoa(len(rep.Statements))},
	}
}

func statementRows(rep *lightsql.Report) [][]string {
	rows := make([][]string, 0, len(rep.Statements))
	for _, st := range rep.Statements {
		rows = append(rows, []string{
			strconv.Itoa(st.Index + 1),
			methodLabel(st.Method),
			tableLabel(st.Table),
			snippet(st.Text),
		})
	}
	return rows
}

// statementView is the structured form of the statements command.
type statementView struct {
	Index  int             `json:"index" yaml:"index"`
	Method lightsql.Method `json:"method" yaml:"method"`
	Text   string          `json:"text" yaml:"text"`
}

func renderStatements(r *output.Renderer, rep *lightsql.Report) error {
	views := make([]statementView, 0, len(rep.Statements))
	for _, st := range rep.Statements {
		views = append(views, statementView{Index: st.Index + 1, Method: st.Method, Text: st.Text})
	}
	if handled, err := r.Data(views); handled {
		return err
	}

	r.Header(1, fmt.Sprintf("Statements (%d)", len(views)))
	if len(views) == 0 {
		r.Muted("(none)")
		return nil
	}
	r.Table([]string{"#", "Method", "Statement"}, func() [][]string {
		rows := make([][]string, 0, len(views))
		for _, v := range views {
			rows = append(rows, []string{strconv.Itoa(v.Index), methodLabel(v.Method), snippet(v.Text)})
		}
		return rows
	}())
	return nil
}

// tableReferences flattens the per-statement references of a report,
// keeping the first occurrence of each name and role.
func tableReferences(rep *lightsql.Report) []lightsql.TableRef {
	refs := make([]lightsql.TableRef, 0)
	seen := make(map[lightsql.TableRef]struct{})
	for _, st := range rep.Statements {
		for _, ref := range st.References {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}
	return refs
}

func renderTables(r *output.Renderer, rep *lightsql.Report, joinsOnly bool) error {
	if joinsOnly {
		return renderList(r, "Join Tables", rep.JoinTables)
	}

	refs := tableReferences(rep)
	if handled, err := r.Data(refs); handled {
		return err
	}

	r.Header(1, fmt.Sprintf("Tables (%d)", len(rep.Tables)))
	if len(refs) == 0 {
		r.Muted("(none)")
		return nil
	}
	rows := make([][]string, 0, len(refs))
	for _, ref := range refs {
		rows = append(rows, []string{ref.Name, string(ref.Role)})
	}
	r.Table([]string{"Table", "Role"}, rows)
	return nil
}

// renderList prints a titled list of strings; structured modes get the bare array.
func renderList(r *output.Renderer, title string, items []string) error {
	if handled, err := r.Data(items); handled {
		return err
	}

	r.Header(1, fmt.Sprintf("%s (%d)", title, len(items)))
	if len(items) == 0 {
		r.Muted("(none)")
		return nil
	}
	for _, item := range items {
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Println("- " + item)
			continue
		}
		r.Println("  " + item)
	}
	return nil
}

func renderEntries(r *output.Renderer, title string, entries []*history.Entry) error {
	if handled, err := r.Data(entries); handled {
		return err
	}

	r.Header(1, fmt.Sprintf("%s (%d)", title, len(entries)))
	if len(entries) == 0 {
		r.Muted("(none)")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID,
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Source,
			methodLabel(e.Method),
			snippet(e.Query),
		})
	}
	r.Table([]string{"ID", "Recorded", "Source", "Method", "Query"}, rows)
	return nil
}

func renderEntry(r *output.Renderer, e *history.Entry) error {
	if handled, err := r.Data(e); handled {
		return err
	}

	r.Header(1, "Entry "+e.ID)
	r.KeyValues([]output.KeyValue{
		{Key: "Recorded", Value: e.CreatedAt.Local().Format("2006-01-02 15:04:05")},
		{Key: "Source", Value: e.Source},
		{Key: "Query", Value: snippet(e.Query)},
	})
	if r.EffectiveMode() != output.ModeMarkdown {
		r.Println("")
	}
	return renderReport(r, e.Report)
}

// scanView is the structured form of the scan command.
type scanView struct {
	Results []scan.Result `json:"results" yaml:"results"`
	Summary scan.Summary  `json:"summary" yaml:"summary"`
}

func renderScan(r *output.Renderer, results []scan.Result) error {
	sum := scan.Summarize(results)
	if handled, err := r.Data(scanView{Results: results, Summary: sum}); handled {
		return err
	}

	r.Header(1, fmt.Sprintf("Scanned %d files", sum.Files))
	if r.EffectiveMode() == output.ModeMarkdown {
		rows := make([][]string, 0, len(results))
		for _, res := range results {
			if res.Report == nil {
				rows = append(rows, []string{res.Path, "error", "", res.Error})
				continue
			}
			rows = append(rows, []string{
				res.Path,
				methodLabel(res.Report.Method),
				strconv.Itoa(len(res.Report.Statements)),
				output.FormatList(res.Report.Tables),
			})
		}
		r.Table([]string{"File", "Method", "Statements", "Tables"}, rows)
		r.Println("")
	} else {
		for _, res := range results {
			if res.Report == nil {
				r.StatusLine(res.Path, "failed", res.Error)
				continue
			}
			r.StatusLine(res.Path, "success", fmt.Sprintf("%s, %d statements, tables: %s",
				methodLabel(res.Report.Method), len(res.Report.Statements), output.FormatList(res.Report.Tables)))
		}
		r.Println("")
	}

	r.KeyValues([]output.KeyValue{
		{Key: "Files", Value: strconv.Itoa(sum.Files)},
		{Key: "Failed", Value: strconv.Itoa(sum.Failed)},
		{Key: "Statements", Value: strconv.Itoa(sum.Statements)},
		{Key: output.Title("with join"), Value: strconv.Itoa(sum.WithJoin)},
		{Key: "Tables", Value: output.FormatList(sum.Tables)},
	})
	return nil
}
