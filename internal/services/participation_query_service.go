package services

import (
	"context"
	"time"

	"csr-collective/engage/internal/db/repositories"
	"csr-collective/engage/internal/logging"
	"csr-collective/engage/internal/models/dtos/responses"
	models "csr-collective/engage/internal/models/gorm"
)

const defaultPageSize = 10

// ParticipationQueryService assembles participation and activity data into
// response-shaped views.
type ParticipationQueryService struct {
	participations *repositories.ParticipationRepository
	activities     *repositories.ActivityRepository
	codec          *DetailCodec
}

// NewParticipationQueryService creates a new participation query service
func NewParticipationQueryService(
	participations *repositories.ParticipationRepository,
	activities *repositories.ActivityRepository,
) *ParticipationQueryService {
	return &ParticipationQueryService{
		participations: participations,
		activities:     activities,
		codec:          NewDetailCodec(),
	}
}

// ListUserParticipationsInEvent pages the activities a user is actively
// signed up for within an event and joins them with the participation rows.
// Rows whose owning activity cannot be found are dropped, not fatal.
func (svc *ParticipationQueryService) ListUserParticipationsInEvent(ctx context.Context, userID, eventID, page, pageSize int) ([]responses.ParticipationView, error) {
	rows, err := svc.participations.FindByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	byActivity := make(map[int]models.Participation, len(rows))
	var activityIDs []int
	for _, row := range rows {
		if !row.IsActive() {
			continue
		}
		if _, seen := byActivity[row.ActivityID]; seen {
			continue
		}
		byActivity[row.ActivityID] = row
		activityIDs = append(activityIDs, row.ActivityID)
	}
	if len(activityIDs) == 0 {
		return []responses.ParticipationView{}, nil
	}

	activityIDs = pageSlice(activityIDs, page, pageSize)
	if len(activityIDs) == 0 {
		return []responses.ParticipationView{}, nil
	}

	activities, err := svc.activities.FindByIDs(ctx, activityIDs)
	if err != nil {
		return nil, err
	}
	activityByID := make(map[int]models.Activity, len(activities))
	for _, activity := range activities {
		activityByID[activity.ID] = activity
	}

	now := time.Now()
	views := make([]responses.ParticipationView, 0, len(activityIDs))
	for _, id := range activityIDs {
		activity, ok := activityByID[id]
		if !ok {
			logging.Warn("Dropping participation with missing activity",
				"user_id", userID,
				"activity_id", id,
			)
			continue
		}
		row := byActivity[id]
		views = append(views, svc.buildView(&row, &activity, now))
	}
	return views, nil
}

// LatestParticipation returns the most recent participation row for the pair
// as a view, or nil when none exists.
func (svc *ParticipationQueryService) LatestParticipation(ctx context.Context, userID, activityID int) (*responses.ParticipationView, error) {
	rows, err := svc.participations.FindByUserAndActivity(ctx, userID, activityID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	activity, err := svc.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	view := svc.buildView(&rows[0], activity, time.Now())
	return &view, nil
}

// UserDetails decodes every detail a user has recorded. Rows whose activity
// is missing or whose detail cannot be decoded are skipped.
func (svc *ParticipationQueryService) UserDetails(ctx context.Context, userID int) (*responses.UserDetailsResponse, error) {
	rows, err := svc.participations.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	details := make([]responses.UserDetail, 0, len(rows))
	for _, row := range rows {
		if len(row.Detail) == 0 {
			continue
		}
		activity, err := svc.activities.GetByID(ctx, row.ActivityID)
		if err != nil {
			logging.Warn("Skipping detail with missing activity",
				"user_id", userID,
				"activity_id", row.ActivityID,
			)
			continue
		}
		if activity.TemplateID == nil {
			continue
		}
		detail := svc.codec.Decode(*activity.TemplateID, row.Detail)
		if detail == nil {
			continue
		}
		details = append(details, responses.UserDetail{
			ActivityID: row.ActivityID,
			TemplateID: *activity.TemplateID,
			Detail:     detail,
		})
	}

	return &responses.UserDetailsResponse{Details: details}, nil
}

func (svc *ParticipationQueryService) buildView(row *models.Participation, activity *models.Activity, now time.Time) responses.ParticipationView {
	view := responses.ParticipationView{
		ParticipationID: row.ID,
		UserID:          row.UserID,
		ActivityID:      activity.ID,
		ActivityName:    activity.Name,
		Duration:        activity.DurationMinutes(),
		ActivityStatus:  activity.StatusAt(now),
		State:           row.State,
		EndorsedBy:      row.EndorsedBy,
		EndorsedAt:      row.EndorsedAt,
		LedgerTxID:      row.LedgerTxID,
		SignedUpAt:      row.CreatedAt,
	}
	if len(row.Detail) > 0 && activity.TemplateID != nil {
		view.Detail = svc.codec.Decode(*activity.TemplateID, row.Detail)
	}
	return view
}

// pageSlice applies 1-based pagination to a slice of ids.
func pageSlice(ids []int, page, pageSize int) []int {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(ids) {
		return nil
	}
	end := start + pageSize
	if end > len(ids) {
		end = len(ids)
	}
	return ids[start:end]
}
