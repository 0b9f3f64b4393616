package session

import "fmt"

// TableNames holds the dynamically prefixed table names the Store reads and
// writes, mirroring the prefix-per-environment convention (dev_/test_/prod_)
// used throughout the repository's Postgres layer.
type TableNames struct {
	Sessions   string
	Validation string
}

func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Sessions:   fmt.Sprintf("%sresearch_sessions", prefix),
		Validation: fmt.Sprintf("%sresearch_session_validation", prefix),
	}
}
