package postprocess

import (
	"github.com/wbrown/flakeql/datatype"
	"github.com/wbrown/flakeql/query"
)

// Row is one projected output row: the select-list's aliases/variable
// names mapped to their computed values, in select-list order.
type Row struct {
	Columns []string
	Values  []datatype.TypedValue
}

// Project evaluates the select list against each solution; select-map
// elements are left for Crawl to expand afterward and are
// represented here by their subject's raw value; Run crawls from the
// solutions themselves, not from these rows.
func Project(vars *query.VarTable, solutions []query.Solution, funcs *query.FunctionRegistry, elements []query.SelectElement) ([]Row, error) {
	out := make([]Row, len(solutions))
	for i, sol := range solutions {
		row := Row{Columns: make([]string, len(elements)), Values: make([]datatype.TypedValue, len(elements))}
		for j, el := range elements {
			switch {
			case el.Tree != nil:
				row.Columns[j] = vars.Name(el.Tree.Var)
				v, _ := sol.Get(el.Tree.Var)
				row.Values[j] = v
			case el.Expr != nil:
				v, err := funcs.EvalScalar(el.Expr, sol)
				if err != nil {
					v = datatype.Undef
				}
				name := el.Expr.As
				if name == "" {
					name = el.Expr.String()
				}
				row.Columns[j] = name
				row.Values[j] = v
			default:
				row.Columns[j] = vars.Name(el.Var)
				v, _ := sol.Get(el.Var)
				row.Values[j] = v
			}
		}
		out[i] = row
	}
	return out, nil
}
