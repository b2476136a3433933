package database

import (
	"time"

	"gorm.io/gorm"
)

// WithStatus restricts tasks to a status when one is given.
func WithStatus(status string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if status == "" {
			return db
		}
		return db.Where("tasks.status = ?", status)
	}
}

// WithPriority restricts tasks to a priority when one is given.
func WithPriority(priority string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if priority == "" {
			return db
		}
		return db.Where("tasks.priority = ?", priority)
	}
}

// Overlapping keeps tasks whose [start_date, end_date] intersects [from, to).
// A nil bound leaves that side open.
func Overlapping(from, to *time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if to != nil {
			db = db.Where("tasks.start_date < ?", *to)
		}
		if from != nil {
			db = db.Where("tasks.end_date >= ?", *from)
		}
		return db
	}
}
