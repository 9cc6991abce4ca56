package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns align right.
type column struct {
	header  string
	numeric bool
}

func textColumn(header string) column    { return column{header: header} }
func numericColumn(header string) column { return column{header: header, numeric: true} }

// renderTable draws rows under columns. Short rows are padded with blanks and
// a nil footer is omitted.
func renderTable(columns []column, rows [][]string, footer []string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(tableRow(len(columns), func(i int) string { return columns[i].header }))
	for _, row := range rows {
		tw.AppendRow(tableRow(len(columns), cellAt(row)))
	}
	if footer != nil {
		tw.AppendFooter(tableRow(len(columns), cellAt(footer)))
	}

	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignFooter: align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func tableRow(width int, cell func(int) string) table.Row {
	row := make(table.Row, width)
	for i := range row {
		row[i] = cell(i)
	}
	return row
}

func cellAt(values []string) func(int) string {
	return func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
}
