package models

import "time"

// Task is the work-queue row. merchant_id is a plain indexed column rather
// than a hard FK so the literal "system" owner of singleton tasks fits;
// erasure deletes cascade through the repository.
type Task struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	MerchantID string    `gorm:"type:varchar(64);not null;index"`
	Type       string    `gorm:"type:varchar(50);not null"`
	Payload    string    `gorm:"type:jsonb;not null;default:'{}'"`
	Status     string    `gorm:"type:varchar(20);not null;index:idx_tasks_status_run_at,priority:1"`
	RunAt      time.Time `gorm:"not null;index:idx_tasks_status_run_at,priority:2"`
	CreatedAt  time.Time
}
