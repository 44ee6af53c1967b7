// Package plantree rebuilds a PostgreSQL plan tree, with its target lists
// and expression trees, from EXPLAIN (VERBOSE, FORMAT JSON) output, and
// describes it to nodegraph.
package plantree

import "strconv"

// Node is any element of a plan tree.
type Node interface {
	node()
}

// VarNo identifies the source a Var reads from. Positive values index the
// range table; the special values refer to a join or upper node's inputs.
type VarNo int

const (
	InnerVar VarNo = -1
	OuterVar VarNo = -2
	IndexVar VarNo = -3
)

func (v VarNo) String() string {
	switch v {
	case InnerVar:
		return "INNER_VAR"
	case OuterVar:
		return "OUTER_VAR"
	case IndexVar:
		return "INDEX_VAR"
	}
	return strconv.Itoa(int(v))
}

// PlannedStmt is the root of a rendered plan.
type PlannedStmt struct {
	CommandType   string
	PlanningTime  float64
	ExecutionTime float64

	PlanTree *Plan
	Rtable   *List
	SubPlans *List
}

// Plan is one executor node. Kind is the EXPLAIN node type, e.g. "Hash Join".
type Plan struct {
	Kind string

	StartupCost float64
	TotalCost   float64
	PlanRows    int64
	PlanWidth   int

	// Optional scalar details, rendered only when set.
	Strategy      string
	JoinType      string
	InnerUnique   bool
	ScanDirection string
	IndexName     string
	FunctionName  string
	CTEName       string
	SubplanName   string
	Operation     string
	ParallelAware bool

	ActualRows      int64
	ActualLoops     int64
	ActualTotalTime float64

	TargetList      *List
	Qual            *List
	JoinQual        *List
	HashClauses     *List
	MergeClauses    *List
	IndexQual       *List
	RecheckQual     *List
	ResConstantQual *List

	SortKey    *List
	SortColIdx *List
	GroupKey   *List

	LeftTree  *Plan
	RightTree *Plan
	Plans     []*Plan
	InitPlan  *List
	SubPlan   *List

	Relation *RangeTblEntry
	CTEPlan  *Plan
}

// List is an ordered sequence of nodes.
type List struct {
	Items []Node
}

func NewList(items ...Node) *List {
	return &List{Items: items}
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

// TargetEntry is one column of a target list.
type TargetEntry struct {
	Expr    Node
	Resno   int
	Resname string
}

// Var references column Varattno of the input selected by Varno.
type Var struct {
	Varno    VarNo
	Varattno int
	Name     string
}

// Const is a literal as EXPLAIN prints it.
type Const struct {
	Value string
}

// Param is an externally supplied value, $ID.
type Param struct {
	ID int
}

type OpExpr struct {
	Op   string
	Args *List
}

// BoolExpr is an AND, OR or NOT over its arguments.
type BoolExpr struct {
	Op   string
	Args *List
}

type FuncExpr struct {
	Name string
	Args *List
}

type NullTest struct {
	Arg    Node
	IsNull bool
}

type TypeCast struct {
	Arg      Node
	TypeName string
}

// ColumnRef is a column name that could not be resolved to an input.
type ColumnRef struct {
	Qualifier string
	Column    string
}

func (c *ColumnRef) String() string {
	if c.Qualifier == "" {
		return c.Column
	}
	return c.Qualifier + "." + c.Column
}

// Expr is expression text that could not be parsed further.
type Expr struct {
	Text string
}

// RangeTblEntry is one relation referenced by the statement. Scans of the
// same relation under the same alias share an entry.
type RangeTblEntry struct {
	Schema  string
	RelName string
	Alias   string
}

type Integer struct {
	Value int64
}

type String struct {
	Value string
}

func (*PlannedStmt) node()   {}
func (*Plan) node()          {}
func (*List) node()          {}
func (*TargetEntry) node()   {}
func (*Var) node()           {}
func (*Const) node()         {}
func (*Param) node()         {}
func (*OpExpr) node()        {}
func (*BoolExpr) node()      {}
func (*FuncExpr) node()      {}
func (*NullTest) node()      {}
func (*TypeCast) node()      {}
func (*ColumnRef) node()     {}
func (*Expr) node()          {}
func (*RangeTblEntry) node() {}
func (*Integer) node()       {}
func (*String) node()        {}
