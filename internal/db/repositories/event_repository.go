package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"csr-collective/engage/internal/constants"
	models "csr-collective/engage/internal/models/gorm"
)

// EventRepository reads event rows with GORM
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// GetByID retrieves an event by id
func (r *EventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	var event models.Event

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&event).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", constants.ErrNotFound, constants.MsgEventNotFound)
		}
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	return &event, nil
}
