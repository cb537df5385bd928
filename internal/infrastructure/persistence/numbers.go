package persistence

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document numbers are unique across tenants and soft-deleted rows keep
// theirs, so both helpers ignore tenant scope and deletion.

// countByPrefix counts the numbers in column starting with prefix
func countByPrefix(db *gorm.DB, model any, column, prefix string) (int64, error) {
	var n int64
	err := db.Unscoped().Model(model).
		Where(clause.Like{Column: clause.Column{Name: column}, Value: prefix + "%"}).
		Count(&n).Error
	return n, err
}

// lastByPrefix returns the greatest number in column starting with prefix, or "".
// Longer numbers sort first: -1000 follows -999 although it is smaller as text.
func lastByPrefix(db *gorm.DB, model any, column, prefix string) (string, error) {
	var numbers []string
	err := db.Unscoped().Model(model).
		Where(clause.Like{Column: clause.Column{Name: column}, Value: prefix + "%"}).
		Order("LENGTH(" + column + ") DESC, " + column + " DESC").
		Limit(1).
		Pluck(column, &numbers).Error
	if err != nil || len(numbers) == 0 {
		return "", err
	}
	return numbers[0], nil
}
