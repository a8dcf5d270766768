package gorm

import (
	"time"

	"csr-collective/engage/internal/constants"
)

type Activity struct {
	ID          int        `gorm:"column:id;primaryKey;autoIncrement"`
	EventID     int        `gorm:"column:event_id;index"`
	Name        string     `gorm:"column:name;size:100;not null"`
	Description string     `gorm:"column:description;size:1000"`
	Icon        string     `gorm:"column:icon;size:255"`
	TemplateID  *int       `gorm:"column:template_id"`
	Duration    *int       `gorm:"column:duration"`
	StartTime   *time.Time `gorm:"column:start_time"`
	EndTime     *time.Time `gorm:"column:end_time"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`

	// Relationships
	Event Event `gorm:"foreignKey:EventID"`
}

// TableName specifies the table name for GORM
func (Activity) TableName() string {
	return "activities"
}

// StatusAt derives the activity status from its time window. The status is
// computed at read time and never persisted.
func (a *Activity) StatusAt(now time.Time) constants.ActivityStatus {
	if a.StartTime != nil && now.Before(*a.StartTime) {
		return constants.ActivityNotStarted
	}
	if a.EndTime != nil && now.After(*a.EndTime) {
		return constants.ActivityFinished
	}
	return constants.ActivityInProgress
}

// DurationMinutes returns the per-participant time credit, 0 when unset.
func (a *Activity) DurationMinutes() int {
	if a.Duration == nil {
		return 0
	}
	return *a.Duration
}
