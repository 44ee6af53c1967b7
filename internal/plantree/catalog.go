package plantree

import (
	"fmt"
	"strconv"

	"github.com/jacobarthurs/pgplandot/internal/nodegraph"
)

// Catalog returns the dispatch table for every plan tree node type.
func Catalog() *nodegraph.KindTable {
	t := nodegraph.NewKindTable()

	nodegraph.Register(t, describeStmt)
	nodegraph.Register(t, describePlan)
	nodegraph.Register(t, describeList)
	nodegraph.Register(t, describeTargetEntry)
	nodegraph.Register(t, describeVar)
	nodegraph.Register(t, func(c *Const) nodegraph.Description {
		return leaf("Const", c.Value)
	})
	nodegraph.Register(t, func(p *Param) nodegraph.Description {
		return record("Param", nil, field("paramid", strconv.Itoa(p.ID)))
	})
	nodegraph.Register(t, func(e *OpExpr) nodegraph.Description {
		return record("OpExpr", []nodegraph.Child{child("args", e.Args)}, field("opname", e.Op))
	})
	nodegraph.Register(t, func(e *BoolExpr) nodegraph.Description {
		return record("BoolExpr", []nodegraph.Child{child("args", e.Args)}, field("boolop", e.Op))
	})
	nodegraph.Register(t, func(e *FuncExpr) nodegraph.Description {
		return record("FuncExpr", []nodegraph.Child{child("args", e.Args)}, field("funcname", e.Name))
	})
	nodegraph.Register(t, func(e *NullTest) nodegraph.Description {
		kind := "IS_NULL"
		if !e.IsNull {
			kind = "IS_NOT_NULL"
		}
		return record("NullTest", []nodegraph.Child{child("arg", e.Arg)}, field("nulltesttype", kind))
	})
	nodegraph.Register(t, func(e *TypeCast) nodegraph.Description {
		return record("TypeCast", []nodegraph.Child{child("arg", e.Arg)}, field("typename", e.TypeName))
	})
	nodegraph.Register(t, func(c *ColumnRef) nodegraph.Description {
		return record("ColumnRef", nil, field("fields", c.String()))
	})
	nodegraph.Register(t, func(e *Expr) nodegraph.Description {
		return leaf("Expr", e.Text)
	})
	nodegraph.Register(t, func(r *RangeTblEntry) nodegraph.Description {
		return record("RangeTblEntry", nil,
			field("schemaname", r.Schema),
			field("relname", r.RelName),
			field("alias", r.Alias))
	})
	nodegraph.Register(t, func(i *Integer) nodegraph.Description {
		return leaf("Integer", strconv.FormatInt(i.Value, 10))
	})
	nodegraph.Register(t, func(s *String) nodegraph.Description {
		return leaf("String", s.Value)
	})

	return t
}

func describeStmt(s *PlannedStmt) nodegraph.Description {
	return nodegraph.Description{
		Kind: "PlannedStmt",
		Children: []nodegraph.Child{
			child("planTree", s.PlanTree),
			child("rtable", s.Rtable),
			child("subplans", s.SubPlans),
		},
		Fields: func() []nodegraph.Field {
			fs := []nodegraph.Field{field("commandType", s.CommandType)}
			fs = appendFloat(fs, "planningTime", s.PlanningTime)
			return appendFloat(fs, "executionTime", s.ExecutionTime)
		},
	}
}

func describePlan(p *Plan) nodegraph.Description {
	kids := []nodegraph.Child{
		{Label: "targetlist", Node: p.TargetList, Mark: nodegraph.TargetList},
		exprRoot("qual", p.Qual),
		exprRoot("joinqual", p.JoinQual),
		exprRoot("hashclauses", p.HashClauses),
		exprRoot("mergeclauses", p.MergeClauses),
		exprRoot("indexqual", p.IndexQual),
		exprRoot("recheckqual", p.RecheckQual),
		exprRoot("resconstantqual", p.ResConstantQual),
		child("sortKey", p.SortKey),
		child("sortColIdx", p.SortColIdx),
		child("groupKey", p.GroupKey),
		child("lefttree", p.LeftTree),
		child("righttree", p.RightTree),
	}
	for i, sub := range p.Plans {
		kids = append(kids, child(fmt.Sprintf("plans[%d]", i), sub))
	}
	kids = append(kids,
		child("initPlan", p.InitPlan),
		child("subPlan", p.SubPlan),
		child("relation", p.Relation),
		child("cteplan", p.CTEPlan),
	)

	return nodegraph.Description{
		Kind:     p.Kind,
		Children: kids,
		Fields:   func() []nodegraph.Field { return planFields(p) },
	}
}

func planFields(p *Plan) []nodegraph.Field {
	fs := []nodegraph.Field{
		field("startup_cost", formatFloat(p.StartupCost)),
		field("total_cost", formatFloat(p.TotalCost)),
		field("plan_rows", strconv.FormatInt(p.PlanRows, 10)),
		field("plan_width", strconv.Itoa(p.PlanWidth)),
	}
	optional := []nodegraph.Field{
		field("strategy", p.Strategy),
		field("jointype", p.JoinType),
		field("scandir", p.ScanDirection),
		field("indexname", p.IndexName),
		field("funcname", p.FunctionName),
		field("ctename", p.CTEName),
		field("plan_name", p.SubplanName),
		field("operation", p.Operation),
	}
	for _, f := range optional {
		if f.Value != "" {
			fs = append(fs, f)
		}
	}
	if p.InnerUnique {
		fs = append(fs, field("inner_unique", "true"))
	}
	if p.ParallelAware {
		fs = append(fs, field("parallel_aware", "true"))
	}
	if p.ActualLoops > 0 {
		fs = append(fs,
			field("actual_rows", strconv.FormatInt(p.ActualRows, 10)),
			field("actual_loops", strconv.FormatInt(p.ActualLoops, 10)),
			field("actual_total_time", formatFloat(p.ActualTotalTime)))
	}
	return fs
}

func describeList(l *List) nodegraph.Description {
	elems := make([]any, len(l.Items))
	for i, n := range l.Items {
		elems[i] = n
	}
	return nodegraph.Description{Kind: "List", Shape: nodegraph.ShapeSequence, Elements: elems}
}

func describeTargetEntry(te *TargetEntry) nodegraph.Description {
	fields := []nodegraph.Field{field("resno", strconv.Itoa(te.Resno))}
	if te.Resname != "" {
		fields = append(fields, field("resname", te.Resname))
	}
	return record("TargetEntry", []nodegraph.Child{child("expr", te.Expr)}, fields...)
}

func describeVar(v *Var) nodegraph.Description {
	fields := []nodegraph.Field{
		field("varno", v.Varno.String()),
		field("varattno", strconv.Itoa(v.Varattno)),
	}
	if v.Name != "" {
		fields = append(fields, field("name", v.Name))
	}
	return record("Var", nil, fields...)
}

func record(kind string, kids []nodegraph.Child, fields ...nodegraph.Field) nodegraph.Description {
	return nodegraph.Description{
		Kind:     kind,
		Children: kids,
		Fields:   func() []nodegraph.Field { return fields },
	}
}

func leaf(kind, value string) nodegraph.Description {
	return nodegraph.Description{Kind: kind, Shape: nodegraph.ShapeLeaf, Value: value}
}

func field(name, value string) nodegraph.Field {
	return nodegraph.Field{Name: name, Value: value}
}

// child links n under label. Typed nil pointers are skipped by the walker,
// so absent links need no special casing here.
func child(label string, n Node) nodegraph.Child {
	return nodegraph.Child{Label: label, Node: n}
}

func exprRoot(label string, l *List) nodegraph.Child {
	return nodegraph.Child{Label: label, Node: l, Mark: nodegraph.ExprRoot}
}

func appendFloat(fs []nodegraph.Field, name string, v float64) []nodegraph.Field {
	if v == 0 {
		return fs
	}
	return append(fs, field(name, formatFloat(v)))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
