package plantree

import (
	"strings"

	"github.com/jacobarthurs/pgplandot/internal/plan"
)

type relKey struct {
	schema, name, alias string
}

type builder struct {
	rels     map[relKey]*RangeTblEntry
	rtable   *List
	subplans *List

	// ctes maps a CTE name to the InitPlan that computes it. CTE scans
	// are linked once the whole tree has been built.
	ctes     map[string]*Plan
	cteScans []*Plan
}

// Build converts one EXPLAIN result into a plan tree. Relations, CTE
// InitPlans and SubPlans are shared nodes: every reference to one points at
// the same value.
func Build(out plan.ExplainOutput) *PlannedStmt {
	b := &builder{
		rels:     make(map[relKey]*RangeTblEntry),
		rtable:   NewList(),
		subplans: NewList(),
		ctes:     make(map[string]*Plan),
	}

	stmt := &PlannedStmt{
		CommandType:   commandType(out),
		PlanningTime:  out.PlanningTime,
		ExecutionTime: out.ExecutionTime,
		PlanTree:      b.plan(out.Plan),
		Rtable:        b.rtable,
		SubPlans:      b.subplans,
	}

	for _, scan := range b.cteScans {
		scan.CTEPlan = b.ctes[scan.CTEName]
	}
	if b.rtable.Len() == 0 {
		stmt.Rtable = nil
	}
	if b.subplans.Len() == 0 {
		stmt.SubPlans = nil
	}
	return stmt
}

func commandType(out plan.ExplainOutput) string {
	if op := out.Plan.Operation; op != "" {
		return strings.ToUpper(op)
	}
	if fields := strings.Fields(out.QueryText); len(fields) > 0 {
		return strings.ToUpper(fields[0])
	}
	return "SELECT"
}

func (b *builder) plan(n plan.PlanNode) *Plan {
	p := &Plan{
		Kind:            n.NodeType,
		StartupCost:     n.StartupCost,
		TotalCost:       n.TotalCost,
		PlanRows:        n.PlanRows,
		PlanWidth:       n.PlanWidth,
		Strategy:        n.Strategy,
		JoinType:        n.JoinType,
		InnerUnique:     n.InnerUnique,
		ScanDirection:   n.ScanDirection,
		IndexName:       n.IndexName,
		FunctionName:    n.FunctionName,
		CTEName:         n.CTEName,
		SubplanName:     n.SubplanName,
		Operation:       n.Operation,
		ParallelAware:   n.ParallelAware,
		ActualRows:      n.ActualRows,
		ActualLoops:     n.ActualLoops,
		ActualTotalTime: n.ActualTotalTime,
	}

	var outer, inner *plan.PlanNode
	for i := range n.Plans {
		child := &n.Plans[i]
		switch child.ParentRelationship {
		case "Outer", "Subquery":
			if p.LeftTree == nil {
				outer = child
				p.LeftTree = b.plan(*child)
				continue
			}
		case "Inner":
			if p.RightTree == nil {
				inner = child
				p.RightTree = b.plan(*child)
				continue
			}
		case "InitPlan":
			initPlan := b.plan(*child)
			p.InitPlan = appendList(p.InitPlan, initPlan)
			if name, ok := strings.CutPrefix(child.SubplanName, "CTE "); ok {
				b.ctes[name] = initPlan
			}
			continue
		case "SubPlan":
			sub := b.plan(*child)
			p.SubPlan = appendList(p.SubPlan, sub)
			b.subplans.Items = append(b.subplans.Items, sub)
			continue
		}
		p.Plans = append(p.Plans, b.plan(*child))
	}

	sc := scope{}
	if outer != nil {
		sc.outer = outer.Output
	}
	if inner != nil {
		sc.inner = inner.Output
	}

	p.TargetList = targetList(n.Output, sc)
	p.Qual = parseQual(n.Filter, sc)
	p.JoinQual = parseQual(n.JoinFilter, sc)
	p.HashClauses = parseQual(n.HashCond, sc)
	p.MergeClauses = parseQual(n.MergeCond, sc)
	p.IndexQual = parseQual(n.IndexCond, sc)
	p.RecheckQual = parseQual(n.RecheckCond, sc)
	p.ResConstantQual = parseQual(n.OneTimeFilter, sc)

	p.SortKey = stringList(n.SortKey)
	p.SortColIdx = columnIndexes(n.SortKey, n.Output)
	p.GroupKey = stringList(n.GroupKey)

	if n.RelationName != "" {
		p.Relation = b.relation(n)
	}
	if n.NodeType == "CTE Scan" && n.CTEName != "" {
		b.cteScans = append(b.cteScans, p)
	}
	return p
}

func (b *builder) relation(n plan.PlanNode) *RangeTblEntry {
	k := relKey{n.Schema, n.RelationName, n.Alias}
	if rte, ok := b.rels[k]; ok {
		return rte
	}
	rte := &RangeTblEntry{Schema: n.Schema, RelName: n.RelationName, Alias: n.Alias}
	b.rels[k] = rte
	b.rtable.Items = append(b.rtable.Items, rte)
	return rte
}

// targetList builds one entry per output column. Columns that the outer or
// inner input already computes become Vars pointing at them.
func targetList(output []string, sc scope) *List {
	if output == nil {
		return nil
	}
	tl := NewList()
	for i, col := range output {
		tl.Items = append(tl.Items, &TargetEntry{
			Expr:    parseInScope(col, sc),
			Resno:   i + 1,
			Resname: resname(col),
		})
	}
	return tl
}

// resname guesses the column name PostgreSQL would give an output
// expression: the last component of a plain column reference.
func resname(col string) string {
	c, ok := ParseExpr(col).(*ColumnRef)
	if !ok {
		return ""
	}
	return strings.Trim(c.Column, `"`)
}

func stringList(values []string) *List {
	if len(values) == 0 {
		return nil
	}
	l := NewList()
	for _, v := range values {
		l.Items = append(l.Items, &String{Value: v})
	}
	return l
}

// columnIndexes maps each key to its 1-based position in output. It
// returns nil unless every key is found.
func columnIndexes(keys, output []string) *List {
	if len(keys) == 0 || len(output) == 0 {
		return nil
	}
	l := NewList()
	for _, k := range keys {
		i := indexOf(output, trimOrdering(k))
		if i < 0 {
			return nil
		}
		l.Items = append(l.Items, &Integer{Value: int64(i + 1)})
	}
	return l
}

var orderingSuffixes = []string{" NULLS FIRST", " NULLS LAST", " DESC", " ASC"}

// trimOrdering drops the sort direction EXPLAIN appends to a sort key.
func trimOrdering(key string) string {
	for _, suffix := range orderingSuffixes {
		key = strings.TrimSuffix(key, suffix)
	}
	return key
}

func indexOf(output []string, key string) int {
	for i, o := range output {
		if o == key {
			return i
		}
		if stripped, ok := stripParens(o); ok && stripped == key {
			return i
		}
	}
	return -1
}

func appendList(l *List, n Node) *List {
	if l == nil {
		l = NewList()
	}
	l.Items = append(l.Items, n)
	return l
}
