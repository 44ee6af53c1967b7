package plan

// PlanNode is one node of PostgreSQL's EXPLAIN (VERBOSE, FORMAT JSON) output.
type PlanNode struct {
	// Identity
	NodeType           string `json:"Node Type"`
	ParentRelationship string `json:"Parent Relationship,omitempty"`
	Strategy           string `json:"Strategy,omitempty"`
	PartialMode        string `json:"Partial Mode,omitempty"`
	Operation          string `json:"Operation,omitempty"`
	ParallelAware      bool   `json:"Parallel Aware,omitempty"`

	// Estimates, plus actuals when ANALYZE was used
	StartupCost     float64 `json:"Startup Cost"`
	TotalCost       float64 `json:"Total Cost"`
	PlanRows        int64   `json:"Plan Rows"`
	PlanWidth       int     `json:"Plan Width"`
	ActualTotalTime float64 `json:"Actual Total Time,omitempty"`
	ActualRows      int64   `json:"Actual Rows,omitempty"`
	ActualLoops     int64   `json:"Actual Loops,omitempty"`

	// Scan targets
	Schema        string `json:"Schema,omitempty"`
	RelationName  string `json:"Relation Name,omitempty"`
	Alias         string `json:"Alias,omitempty"`
	IndexName     string `json:"Index Name,omitempty"`
	ScanDirection string `json:"Scan Direction,omitempty"`
	FunctionName  string `json:"Function Name,omitempty"`
	CTEName       string `json:"CTE Name,omitempty"`
	SubplanName   string `json:"Subplan Name,omitempty"`

	// Projection, present with VERBOSE
	Output []string `json:"Output,omitempty"`

	// Conditions, as the deparsed text EXPLAIN prints
	Filter        string `json:"Filter,omitempty"`
	IndexCond     string `json:"Index Cond,omitempty"`
	RecheckCond   string `json:"Recheck Cond,omitempty"`
	JoinFilter    string `json:"Join Filter,omitempty"`
	HashCond      string `json:"Hash Cond,omitempty"`
	MergeCond     string `json:"Merge Cond,omitempty"`
	OneTimeFilter string `json:"One-Time Filter,omitempty"`

	JoinType    string `json:"Join Type,omitempty"`
	InnerUnique bool   `json:"Inner Unique,omitempty"`

	SortKey  []string `json:"Sort Key,omitempty"`
	GroupKey []string `json:"Group Key,omitempty"`

	Plans []PlanNode `json:"Plans,omitempty"`
}

// ExplainOutput represents the top-level EXPLAIN JSON output from PostgreSQL.
type ExplainOutput struct {
	Plan          PlanNode `json:"Plan"`
	PlanningTime  float64  `json:"Planning Time,omitempty"`
	ExecutionTime float64  `json:"Execution Time,omitempty"`

	// QueryText is filled in by auto_explain, or by Resolve when the plan
	// came from running a SQL query.
	QueryText string `json:"Query Text,omitempty"`
}
