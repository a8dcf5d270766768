package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"csr-collective/engage/internal/constants"
	models "csr-collective/engage/internal/models/gorm"
)

// ActivityRepository reads activity rows with GORM
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// GetByID retrieves an activity by id
func (r *ActivityRepository) GetByID(ctx context.Context, id int) (*models.Activity, error) {
	var activity models.Activity

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&activity).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", constants.ErrNotFound, constants.MsgActivityNotFound)
		}
		return nil, fmt.Errorf("failed to fetch activity: %w", err)
	}
	return &activity, nil
}

// FindByEventID retrieves all activities under an event
func (r *ActivityRepository) FindByEventID(ctx context.Context, eventID int) ([]models.Activity, error) {
	var activities []models.Activity

	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Find(&activities).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities for event: %w", err)
	}
	return activities, nil
}

// FindByIDs retrieves activities by a set of ids
func (r *ActivityRepository) FindByIDs(ctx context.Context, ids []int) ([]models.Activity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&activities).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	return activities, nil
}
