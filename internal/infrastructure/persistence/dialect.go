package persistence

import (
	"fmt"

	"gorm.io/gorm"
)

// dayExpr renders column as a YYYY-MM-DD string in the SQL dialect of db
func dayExpr(db *gorm.DB, column string) string {
	if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
		return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", column)
	}
	return fmt.Sprintf("TO_CHAR(%s, 'YYYY-MM-DD')", column)
}
