package cliutil

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Column is one table column. Right aligns cell values to the right; headers
// are always left aligned.
type Column struct {
	Header string
	Right  bool
}

// Left returns a left-aligned column.
func Left(header string) Column { return Column{Header: header} }

// Right returns a right-aligned column, used for counts, scores and ids.
func Right(header string) Column { return Column{Header: header, Right: true} }

// Headers returns left-aligned columns for each header.
func Headers(headers ...string) []Column {
	columns := make([]Column, len(headers))
	for i, header := range headers {
		columns[i] = Left(header)
	}
	return columns
}

// Table renders rows with rounded borders. Rows shorter than columns are
// padded with empty cells and extra cells are dropped.
func Table(columns []Column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, column := range columns {
		header[i] = column.Header
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if column.Right {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		cells := make(table.Row, len(columns))
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		tw.AppendRow(cells)
	}
	return tw.Render()
}
