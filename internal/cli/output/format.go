package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatHeader returns a Markdown header of the given level.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a Markdown list item "- **key**: value".
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// FormatList joins values for a single line, or "(none)".
func FormatList(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}

// Title upper-cases the first letter of every word, e.g. "join tables" -> "Join Tables".
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

// KeyValue is one labelled value of a summary block.
type KeyValue struct {
	Key   string
	Value string
}

// KeyValues prints a summary block: a Markdown list in markdown mode,
// aligned "Key: value" lines otherwise.
func (r *Renderer) KeyValues(items []KeyValue) {
	if r.EffectiveMode() == ModeMarkdown {
		for _, kv := range items {
			r.Println(FormatKeyValue(kv.Key, kv.Value))
		}
		r.Println("")
		return
	}

	width := 0
	for _, kv := range items {
		width = max(width, len(kv.Key))
	}
	for _, kv := range items {
		pad := strings.Repeat(" ", width-len(kv.Key)+1)
		r.Println("  " + r.styles.Bold.Render(kv.Key+":") + pad + kv.Value)
	}
}

// YesNo formats a boolean for humans.
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Table renders rows with go-pretty. Markdown mode emits a pipe table,
// every other mode a light box table.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}
