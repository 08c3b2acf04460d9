package main

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/postprocess"
)

// formatRows renders a tuple-mode result as a markdown table, grounded
// on the teacher's datalog/executor/table_formatter.go.
func formatRows(rows []postprocess.Row) string {
	if len(rows) == 0 {
		return "_No rows_"
	}

	var out strings.Builder
	alignment := make([]tw.Align, len(rows[0].Columns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(&out,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(rows[0].Columns)

	for _, row := range rows {
		rendered := make([]string, len(row.Values))
		for i, v := range row.Values {
			rendered[i] = formatValue(v)
		}
		table.Append(rendered)
	}
	table.Render()

	fmt.Fprintf(&out, "\n_%d rows_\n", len(rows))
	return out.String()
}

func formatValue(v datatype.TypedValue) string {
	if v.IsUndef() {
		return "_"
	}
	switch val := v.Value.(type) {
	case string:
		return val
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
