package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Resolve reads a plan from input, which is a file path, "-" for stdin, or
// empty for an interactive paste. SQL input is explained against dbConn.
// label prefixes prompts and errors when several inputs are being read.
func Resolve(ctx context.Context, input string, dbConn string, label string, opts ExplainOptions) (ExplainOutput, error) {
	data, err := readInput(input, label)
	if err != nil {
		return ExplainOutput{}, err
	}

	var plans []ExplainOutput

	switch detectType(data, input) {
	case "json":
		plans, err = ParseJSONPlan(data)
	case "sql":
		query := strings.TrimSpace(string(data))
		if strings.HasPrefix(strings.ToUpper(query), "EXPLAIN") {
			return ExplainOutput{}, fmt.Errorf("input should not include EXPLAIN prefix - provide the raw query only")
		}
		if dbConn == "" {
			return ExplainOutput{}, fmt.Errorf("SQL input requires a database connection")
		}
		plans, err = Execute(ctx, dbConn, query, opts)
	case "text":
		return ExplainOutput{}, fmt.Errorf(`text format not supported - use JSON format:

%s<your query>

Then provide the complete JSON output.`, opts.prefix())
	default:
		return ExplainOutput{}, fmt.Errorf("unable to detect %sinput type: expected JSON plan, SQL query, or .json/.sql file", label)
	}

	if err != nil {
		return ExplainOutput{}, fmt.Errorf("reading %splan: %w", label, err)
	}
	return plans[0], nil
}

func readInput(input string, label string) ([]byte, error) {
	switch input {
	case "":
		return readInteractive(label)
	case "-":
		return io.ReadAll(os.Stdin)
	default:
		return os.ReadFile(input)
	}
}

func readInteractive(label string) ([]byte, error) {
	fmt.Fprintf(os.Stderr, "Paste %sEXPLAIN (VERBOSE, FORMAT JSON) output or SQL query", label)
	if runtime.GOOS == "windows" {
		fmt.Fprint(os.Stderr, " (Ctrl+Z, Enter to submit)\n")
	} else {
		fmt.Fprint(os.Stderr, " (Ctrl+D to submit)\n")
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	if (strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{")) && !json.Valid(data) {
		return nil, fmt.Errorf("input appears truncated; for large inputs use: pgplandot dot <file>")
	}

	return data, nil
}

var sqlKeywords = []string{"SELECT", "WITH", "INSERT", "UPDATE", "DELETE", "VALUES", "TABLE", "EXPLAIN"}

func detectType(data []byte, filename string) string {
	switch {
	case strings.HasSuffix(filename, ".json"):
		return "json"
	case strings.HasSuffix(filename, ".sql"):
		return "sql"
	case strings.HasSuffix(filename, ".txt"):
		return "text"
	}

	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return "json"
	}
	if strings.Contains(trimmed, "(cost=") {
		return "text"
	}

	upper := strings.ToUpper(trimmed)
	for _, kw := range sqlKeywords {
		if strings.HasPrefix(upper, kw) {
			return "sql"
		}
	}
	return "unknown"
}
