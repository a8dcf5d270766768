package gorm

import "time"

type User struct {
	ID          int       `gorm:"column:id;primaryKey;autoIncrement"`
	Username    string    `gorm:"column:username;size:45;uniqueIndex"`
	DisplayName string    `gorm:"column:display_name;size:100"`
	Location    string    `gorm:"column:location;size:45"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`

	// Relationships
	Participations []Participation `gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}
