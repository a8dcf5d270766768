package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"csr-collective/engage/internal/constants"
	models "csr-collective/engage/internal/models/gorm"
)

// UserRepository reads user rows with GORM
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", constants.ErrNotFound, constants.MsgUserNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}
