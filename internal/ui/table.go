package ui

import (
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Table renders rows with a header through tablewriter
type Table struct {
	writer *tablewriter.Table
}

// NewTable creates a new table writing to the current output
func NewTable(columns ...string) *Table {
	w := tablewriter.NewWriter(out)
	w.SetHeader(columns)
	w.SetAutoFormatHeaders(false)
	w.SetAutoWrapText(false)
	w.SetAlignment(tablewriter.ALIGN_LEFT)
	return &Table{writer: w}
}

// AddRow adds a data row to the table
func (t *Table) AddRow(values ...string) {
	t.writer.Append(values)
}

// Render displays the table
func (t *Table) Render() {
	t.writer.Render()
}

// TableCount is one line of the row-count report
type TableCount struct {
	Table string
	Rows  int64
	Err   error
}

// ShowRowCounts prints the row-count report. Empty tables are highlighted
// and tables that could not be counted show the error instead of a number.
func ShowRowCounts(counts []TableCount) {
	empty := highlighter(color.FgYellow)
	failed := highlighter(color.FgRed)

	t := NewTable("TABLE", "ROWS")
	for _, c := range counts {
		switch {
		case c.Err != nil:
			t.AddRow(c.Table, failed("error: "+firstLine(c.Err.Error())))
		case c.Rows == 0:
			t.AddRow(c.Table, empty("0"))
		default:
			t.AddRow(c.Table, strconv.FormatInt(c.Rows, 10))
		}
	}
	t.Render()
}

func highlighter(attr color.Attribute) func(a ...interface{}) string {
	c := color.New(attr)
	if supportsColor {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
