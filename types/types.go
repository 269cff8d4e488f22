package types

// Column describes one column of one table, as reported by DESCRIBE TABLE.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult holds one query's output: column names plus rows of
// display-string values, both in the order the server returned them.
type QueryResult struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}
