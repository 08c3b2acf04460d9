package planner

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/wbrown/flakeql/query"
)

// Explain produces a plan description: ordered list of patterns with
// pattern-type, selectivity, whether optimizable, a user-printable
// (subject, property, object) rendering with compacted IRIs, and
// segmentation into reorderable runs and fence boundaries,
// grounded on the teacher's annotation output's colorized
// Pattern(...)/Scan([...]) rendering (datalog/annotations/output.go).
type Explain struct {
	Steps []ExplainStep
}

// ExplainStep describes one where-clause element in the realized plan.
type ExplainStep struct {
	Index       int
	Type        string
	Selectivity int64
	Optimizable bool
	Rendering   string
	Fence       bool
}

// ExplainPlan walks a realized plan's where clause and renders each step.
func ExplainPlan(plan *Plan, opt Optimizable, ctx query.Context) *Explain {
	ex := &Explain{}
	for i, c := range plan.Where {
		step := ExplainStep{
			Index:     i,
			Type:      clauseType(c),
			Fence:     !isBindingPattern(c),
			Rendering: renderClause(c, ctx),
		}
		if pat := toIndexPattern(c); pat != nil && opt != nil {
			if n, err := opt.Selectivity(pat); err == nil {
				step.Selectivity = n
				step.Optimizable = true
			}
		}
		ex.Steps = append(ex.Steps, step)
	}
	return ex
}

func clauseType(c query.Clause) string {
	switch c.(type) {
	case query.TuplePattern:
		return "tuple"
	case query.ClassPattern:
		return "class"
	case query.IRIPattern:
		return "iri"
	case query.FullTextPattern:
		return "fullText"
	case query.OptionalPattern:
		return "optional"
	case query.UnionPattern:
		return "union"
	case query.MinusPattern:
		return "minus"
	case query.ExistsPattern:
		return "exists"
	case query.NotExistsPattern:
		return "not-exists"
	case query.BindPattern:
		return "bind"
	case query.FilterPattern:
		return "filter"
	case query.ValuesPattern:
		return "values"
	case query.GraphPattern:
		return "graph"
	case query.ServicePattern:
		return "service"
	default:
		return "unknown"
	}
}

func renderClause(c query.Clause, ctx query.Context) string {
	compact := func(t query.Term) string {
		if t == nil {
			return "_"
		}
		s := t.String()
		for prefix, iri := range ctx {
			if strings.HasPrefix(s, iri) {
				return prefix + ":" + strings.TrimPrefix(s, iri)
			}
		}
		return s
	}
	switch p := c.(type) {
	case query.TuplePattern:
		return fmt.Sprintf("%s(%s, %s, %s)", color.BlueString("Pattern"),
			color.CyanString(compact(p.Subject)), color.CyanString(compact(p.Predicate)), color.CyanString(compact(p.Object)))
	default:
		return c.String()
	}
}

// String renders the full explain output as text.
func (e *Explain) String() string {
	var b strings.Builder
	for _, s := range e.Steps {
		fence := ""
		if s.Fence {
			fence = color.YellowString(" [fence]")
		}
		fmt.Fprintf(&b, "%d: %s selectivity=%d%s%s\n", s.Index, s.Type, s.Selectivity, fence, "")
		fmt.Fprintf(&b, "   %s\n", s.Rendering)
	}
	return b.String()
}
