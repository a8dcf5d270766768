package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"csr-collective/engage/internal/common"
	"csr-collective/engage/internal/constants"
	"csr-collective/engage/internal/db/repositories"
	"csr-collective/engage/internal/logging"
	"csr-collective/engage/internal/models/dtos"
	"csr-collective/engage/internal/models/dtos/responses"
	models "csr-collective/engage/internal/models/gorm"
)

const eventAggregateTTL = 30 * time.Second

// AggregationService computes participation totals across activities and
// events. Reads take no locks; an aggregate computed concurrently with an
// in-flight sign-up reflects either the pre- or post-state, never a torn one.
type AggregationService struct {
	participations *repositories.ParticipationRepository
	activities     *repositories.ActivityRepository
	codec          *DetailCodec
	cache          common.CacheInterface
}

// NewAggregationService creates a new aggregation service
func NewAggregationService(
	participations *repositories.ParticipationRepository,
	activities *repositories.ActivityRepository,
	cache common.CacheInterface,
) *AggregationService {
	return &AggregationService{
		participations: participations,
		activities:     activities,
		codec:          NewDetailCodec(),
		cache:          cache,
	}
}

// ParticipantCount counts the active SIGNED_UP participations of an activity.
func (svc *AggregationService) ParticipantCount(ctx context.Context, activityID int) (int, error) {
	return svc.participations.CountSignedUpByActivity(ctx, activityID)
}

// TotalTime is the activity time credit: participants times the fixed
// duration, 0 when the activity carries none.
func (svc *AggregationService) TotalTime(activity *models.Activity, participants int) int {
	return participants * activity.DurationMinutes()
}

// ActivityAggregate computes the per-activity totals on demand.
func (svc *AggregationService) ActivityAggregate(ctx context.Context, activity *models.Activity) (*responses.ActivityAggregate, error) {
	participants, err := svc.ParticipantCount(ctx, activity.ID)
	if err != nil {
		return nil, err
	}

	return &responses.ActivityAggregate{
		ActivityID:        activity.ID,
		TotalParticipants: participants,
		TotalTime:         svc.TotalTime(activity, participants),
	}, nil
}

// EventAggregate computes the per-event totals: distinct participants, summed
// time credit and summed donation amount. Results are cached briefly since
// event pages hit this on every render.
func (svc *AggregationService) EventAggregate(ctx context.Context, eventID int) (*responses.EventAggregate, error) {
	cacheKey := fmt.Sprintf("event_aggregate:%d", eventID)
	if svc.cache != nil {
		if val, found := svc.cache.Get(cacheKey); found {
			if agg := decodeCachedAggregate(val, eventID); agg != nil {
				return agg, nil
			}
		}
	}

	activities, err := svc.activities.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	agg := &responses.EventAggregate{
		EventID:     eventID,
		TotalAmount: decimal.Zero,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		participants, err := svc.participations.CountDistinctUsersByEvent(gctx, eventID)
		if err != nil {
			return err
		}
		agg.TotalParticipants = participants
		return nil
	})

	g.Go(func() error {
		total := 0
		for i := range activities {
			activity := &activities[i]
			participants, err := svc.participations.CountSignedUpByActivity(gctx, activity.ID)
			if err != nil {
				return err
			}
			total += svc.TotalTime(activity, participants)
		}
		agg.TotalTime = total
		return nil
	})

	g.Go(func() error {
		amount, err := svc.sumDonations(gctx, activities)
		if err != nil {
			return err
		}
		agg.TotalAmount = amount
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if svc.cache != nil {
		svc.cache.Set(cacheKey, agg, eventAggregateTTL)
	}
	return agg, nil
}

// decodeCachedAggregate recovers an EventAggregate from a cache hit. The
// in-memory backend returns the stored pointer; the redis backend returns the
// JSON-decoded generic value, which is remarshalled into the concrete type.
func decodeCachedAggregate(val interface{}, eventID int) *responses.EventAggregate {
	if agg, ok := val.(*responses.EventAggregate); ok {
		return agg
	}

	raw, err := json.Marshal(val)
	if err != nil {
		return nil
	}
	var agg responses.EventAggregate
	if err := json.Unmarshal(raw, &agg); err != nil || agg.EventID != eventID {
		return nil
	}
	return &agg
}

// sumDonations adds up the donation amounts recorded under the event's
// donation-template activities. A row whose detail cannot be decoded is
// logged and skipped so one corrupt blob never zeroes the whole aggregate.
func (svc *AggregationService) sumDonations(ctx context.Context, activities []models.Activity) (decimal.Decimal, error) {
	var donationActivityIDs []int
	for _, activity := range activities {
		if activity.TemplateID != nil && *activity.TemplateID == constants.TemplateDonation {
			donationActivityIDs = append(donationActivityIDs, activity.ID)
		}
	}
	if len(donationActivityIDs) == 0 {
		return decimal.Zero, nil
	}

	rows, err := svc.participations.FindActiveByActivityIDs(ctx, donationActivityIDs)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, row := range rows {
		detail := svc.codec.Decode(constants.TemplateDonation, row.Detail)
		if detail == nil {
			logging.Warn("Skipping undecodable donation detail",
				"participation_id", row.ID,
				"activity_id", row.ActivityID,
			)
			continue
		}
		donation, ok := detail.(dtos.DonationDetail)
		if !ok {
			continue
		}
		total = total.Add(donation.Amount)
	}
	return total, nil
}
