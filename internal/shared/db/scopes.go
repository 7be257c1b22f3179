package db

import "gorm.io/gorm"

// StatusIn restricts a query to rows whose status column is one of statuses.
func StatusIn(statuses ...string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status IN ?", statuses)
	}
}

// StatusNot excludes rows with the given status, e.g. soft-deleted instances.
func StatusNot(status string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status <> ?", status)
	}
}
