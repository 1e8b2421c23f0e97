// Package safety implements the policy gate applied to read-only database
// tools before a query is sent to the backend.
package safety

import (
	"strings"

	"github.com/pochehq/agentloop/tool"
)

// ErrQueryNotReadOnly is the message surfaced when a query fails the
// read-only check.
const ErrQueryNotReadOnly = "Only SELECT queries are allowed"

// CheckReadOnly rejects any query whose first token, after trimming
// whitespace and case-folding, is not SELECT or WITH. The query is never sent
// to the database when rejected.
//
// This is a textual prefix check, not a SQL parser. It is a cheap guard
// against obvious mutations; statements smuggled through CTEs or functions
// are not detected.
func CheckReadOnly(query string) error {
	q := strings.ToUpper(strings.TrimSpace(query))
	if strings.HasPrefix(q, "SELECT") || strings.HasPrefix(q, "WITH") {
		return nil
	}
	return tool.NewToolError("db_execute_query", ErrQueryNotReadOnly, tool.CodePolicy)
}
