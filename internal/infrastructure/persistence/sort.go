package persistence

import (
	"strings"
	"unicode"
)

// CommonSortFields contains the columns every MES table has
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// sortFields merges extra columns into CommonSortFields
func sortFields(extra ...string) map[string]bool {
	m := make(map[string]bool, len(CommonSortFields)+len(extra))
	for k := range CommonSortFields {
		m[k] = true
	}
	for _, k := range extra {
		m[k] = true
	}
	return m
}

// sortClause turns a client's orderBy/orderDir into "column DIR". Screens send
// the JSON name (partCode) or the column (part_code); both resolve to the
// column. A field outside allowed yields "" so the caller keeps its default.
func sortClause(orderBy, orderDir string, allowed map[string]bool) string {
	column := snakeCase(strings.TrimSpace(orderBy))
	if column == "" || !allowed[column] {
		return ""
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		dir = "ASC"
	}
	return column + " " + dir
}

// snakeCase converts lowerCamel to snake_case. Anything but letters, digits
// and underscores makes the name invalid.
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		case r == '_' || unicode.IsLower(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			return ""
		}
	}
	return b.String()
}
