package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"csr-collective/engage/internal/constants"
	models "csr-collective/engage/internal/models/gorm"
)

// ParticipationRepository manages participation rows with GORM
type ParticipationRepository struct {
	db *gorm.DB
}

// NewParticipationRepository creates a new participation repository
func NewParticipationRepository(db *gorm.DB) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

// FindByUserAndActivity returns every row for the pair, newest sign-up first.
// The uniqueness constraint allows at most one, but rows predating it may
// still exist; callers must tolerate more.
func (r *ParticipationRepository) FindByUserAndActivity(ctx context.Context, userID, activityID int) ([]models.Participation, error) {
	var rows []models.Participation

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND activity_id = ?", userID, activityID).
		Order("created_at DESC").
		Find(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch participations: %w", err)
	}
	return rows, nil
}

// FindByUser returns every participation row for a user.
func (r *ParticipationRepository) FindByUser(ctx context.Context, userID int) ([]models.Participation, error) {
	var rows []models.Participation

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch user participations: %w", err)
	}
	return rows, nil
}

// FindByUserAndEvent returns the user's participation rows for activities
// belonging to the event, newest sign-up first. The order must be stable
// across calls since callers paginate over it.
func (r *ParticipationRepository) FindByUserAndEvent(ctx context.Context, userID, eventID int) ([]models.Participation, error) {
	var rows []models.Participation

	err := r.db.WithContext(ctx).
		Joins("JOIN activities ON activities.id = participations.activity_id").
		Where("participations.user_id = ? AND activities.event_id = ?", userID, eventID).
		Order("participations.created_at DESC, participations.id").
		Find(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch participations for event: %w", err)
	}
	return rows, nil
}

// FindActiveByActivityIDs returns the active SIGNED_UP rows for a set of
// activities.
func (r *ParticipationRepository) FindActiveByActivityIDs(ctx context.Context, activityIDs []int) ([]models.Participation, error) {
	if len(activityIDs) == 0 {
		return nil, nil
	}

	var rows []models.Participation
	err := r.db.WithContext(ctx).
		Where("activity_id IN ? AND state = ? AND deleted = ?", activityIDs, string(constants.StateSignedUp), false).
		Find(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch participations for activities: %w", err)
	}
	return rows, nil
}

// CountSignedUpByActivity counts active SIGNED_UP rows for an activity.
func (r *ParticipationRepository) CountSignedUpByActivity(ctx context.Context, activityID int) (int, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&models.Participation{}).
		Where("activity_id = ? AND state = ? AND deleted = ?", activityID, string(constants.StateSignedUp), false).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return int(count), nil
}

// CountDistinctUsersByEvent counts unique users actively signed up across all
// activities of an event, de-duplicating users joined to several of them.
func (r *ParticipationRepository) CountDistinctUsersByEvent(ctx context.Context, eventID int) (int, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&models.Participation{}).
		Joins("JOIN activities ON activities.id = participations.activity_id").
		Where("activities.event_id = ? AND participations.state = ? AND participations.deleted = ?",
			eventID, string(constants.StateSignedUp), false).
		Distinct("participations.user_id").
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to count event participants: %w", err)
	}
	return int(count), nil
}

// IsDuplicateKey reports whether err is a storage uniqueness violation. GORM
// translates driver errors when TranslateError is on; the string checks cover
// the postgres and sqlite drivers when it is not.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
