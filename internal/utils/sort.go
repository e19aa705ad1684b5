package utils

import "strings"

// sortColumns maps client sort field names to task table columns. Anything
// outside this set falls back to the default ordering.
var sortColumns = map[string]string{
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
	"dueDate":   "due_date",
	"due_date":  "due_date",
	"createdAt": "created_at",
}

const (
	DefaultSortColumn = "created_at"
	DefaultSortDesc   = true
)

// ParseSortSpec parses a "field:dir" sort specification. An empty or
// unrecognized field yields the default sort (creation time, newest first).
func ParseSortSpec(spec string) (column string, desc bool) {
	if spec == "" {
		return DefaultSortColumn, DefaultSortDesc
	}

	field := spec
	dir := "asc"
	if i := strings.IndexByte(spec, ':'); i >= 0 {
		field = spec[:i]
		dir = strings.ToLower(spec[i+1:])
	}

	col, ok := sortColumns[field]
	if !ok {
		return DefaultSortColumn, DefaultSortDesc
	}

	return col, dir == "desc"
}
