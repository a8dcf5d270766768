package gorm

import (
	"time"

	"csr-collective/engage/internal/constants"
)

type Event struct {
	ID          int        `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string     `gorm:"column:name;size:100;not null"`
	Description string     `gorm:"column:description;size:1000"`
	Location    string     `gorm:"column:location;size:45"`
	StartTime   *time.Time `gorm:"column:start_time"`
	EndTime     *time.Time `gorm:"column:end_time"`
	Status      string     `gorm:"column:status;size:20;default:active"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`

	// Relationships
	Activities []Activity `gorm:"foreignKey:EventID"`
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}

// IsEnded reports whether the event has been closed out.
func (e *Event) IsEnded() bool {
	return e.Status == string(constants.EventEnded)
}
