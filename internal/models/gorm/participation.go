package gorm

import (
	"time"

	"csr-collective/engage/internal/constants"
)

// Participation is the membership record of one user against one activity.
// At most one non-deleted row exists per (user_id, activity_id) pair; withdraw
// soft-deletes the row and a later re-sign-up reactivates the same row, so the
// endorsement fields and any prior ledger transaction id survive the cycle.
type Participation struct {
	ID          int        `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      int        `gorm:"column:user_id;uniqueIndex:uk_user_activity"`
	ActivityID  int        `gorm:"column:activity_id;uniqueIndex:uk_user_activity"`
	State       string     `gorm:"column:state;size:45"`
	EndorsedBy  *int       `gorm:"column:endorsed_by"`
	EndorsedAt  *time.Time `gorm:"column:endorsed_at"`
	LedgerTxID  *string    `gorm:"column:ledger_tx_id;size:64"`
	Detail      []byte     `gorm:"column:detail;type:json"`
	Deleted     bool       `gorm:"column:deleted;not null;default:false"`
	CreatedAt   time.Time  `gorm:"column:created_at"`

	// Relationships
	User     User     `gorm:"foreignKey:UserID"`
	Activity Activity `gorm:"foreignKey:ActivityID"`
}

// TableName specifies the table name for GORM
func (Participation) TableName() string {
	return "participations"
}

// IsActive reports whether the row counts toward aggregates and listings.
func (p *Participation) IsActive() bool {
	return !p.Deleted && p.State == string(constants.StateSignedUp)
}
