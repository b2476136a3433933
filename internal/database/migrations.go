package database

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yukikurage/taskboard/internal/models"
)

type index struct {
	model  interface{}
	name   string
	fields []string
}

// filter columns used by GET /v1/tasks
var taskIndexes = []index{
	{&models.Task{}, "idx_tasks_status", []string{"status"}},
	{&models.Task{}, "idx_tasks_priority", []string{"priority"}},
	{&models.Task{}, "idx_tasks_owned_by_id", []string{"owned_by_id"}},
	{&models.Task{}, "idx_tasks_assigned_to_id", []string{"assigned_to_id"}},
	{&models.Task{}, "idx_tasks_dates", []string{"start_date", "end_date"}},
}

// AddIndexes adds the task filter indexes, skipping any that already exist.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()
	for _, idx := range taskIndexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.WithField("index", idx.name).Debug("Index already exists, skipping")
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to parse model for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, strings.Join(idx.fields, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithField("index", idx.name).Info("Created index")
	}

	return nil
}
