package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"csr-collective/engage/internal/constants"
	"csr-collective/engage/internal/db/repositories"
	"csr-collective/engage/internal/logging"
	"csr-collective/engage/internal/models/dtos"
	models "csr-collective/engage/internal/models/gorm"
	"csr-collective/engage/internal/providers"
)

// ParticipationService owns the lifecycle of a user's participation in an
// activity: sign-up, withdraw, re-sign-up and detail updates. Every mutation
// runs inside a single transaction so the read-then-write sequence for a
// (user, activity) pair is never interleaved with a concurrent equivalent;
// the storage uniqueness constraint catches the remaining first-sign-up race.
type ParticipationService struct {
	db     *gorm.DB
	ledger providers.LedgerProvider
	codec  *DetailCodec
}

// NewParticipationService creates a new participation service
func NewParticipationService(db *gorm.DB, ledger providers.LedgerProvider) *ParticipationService {
	return &ParticipationService{
		db:     db,
		ledger: ledger,
		codec:  NewDetailCodec(),
	}
}

// SignUp registers a user for an activity. A withdrawn row for the pair is
// reactivated in place with a fresh sign-up time; its detail and ledger
// transaction id from the prior cycle are deliberately left untouched.
func (svc *ParticipationService) SignUp(ctx context.Context, userID, activityID int) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePair(tx, userID, activityID); err != nil {
			return err
		}

		var existing []models.Participation
		if err := tx.Where("user_id = ? AND activity_id = ?", userID, activityID).
			Order("created_at DESC").
			Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to fetch participations: %w", err)
		}
		if len(existing) > 1 {
			logging.Warn("Multiple participation rows for pair",
				"user_id", userID,
				"activity_id", activityID,
				"count", len(existing),
			)
		}

		if len(existing) > 0 {
			record := existing[0]
			if record.IsActive() {
				return fmt.Errorf("%w: %s", constants.ErrAlreadyRegistered, constants.MsgAlreadySignedUp)
			}

			// Reactivate the soft-deleted row rather than inserting a
			// second one; the uniqueness key stays satisfied.
			err := tx.Model(&models.Participation{}).
				Where("id = ?", record.ID).
				Updates(map[string]interface{}{
					"state":      string(constants.StateSignedUp),
					"deleted":    false,
					"created_at": time.Now(),
				}).Error
			if err != nil {
				return fmt.Errorf("failed to reactivate participation: %w", err)
			}

			logging.Info("Participation reactivated",
				"user_id", userID,
				"activity_id", activityID,
			)
			return nil
		}

		record := models.Participation{
			UserID:     userID,
			ActivityID: activityID,
			State:      string(constants.StateSignedUp),
			CreatedAt:  time.Now(),
		}
		if err := tx.Create(&record).Error; err != nil {
			// Two concurrent first-time sign-ups race past the read
			// above; the unique index breaks the tie.
			if repositories.IsDuplicateKey(err) {
				return fmt.Errorf("%w: %s", constants.ErrAlreadyRegistered, constants.MsgAlreadySignedUp)
			}
			return fmt.Errorf("failed to create participation: %w", err)
		}

		logging.Info("Participation created",
			"user_id", userID,
			"activity_id", activityID,
		)
		return nil
	})
}

// Withdraw soft-deletes the user's participation in an activity. Rows are
// never physically removed so endorsement history and prior ledger ids are
// preserved for a later re-sign-up.
func (svc *ParticipationService) Withdraw(ctx context.Context, userID, activityID int) error {
	return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePair(tx, userID, activityID); err != nil {
			return err
		}

		var existing []models.Participation
		if err := tx.Where("user_id = ? AND activity_id = ? AND deleted = ?", userID, activityID, false).
			Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to fetch participations: %w", err)
		}

		if len(existing) == 0 {
			return fmt.Errorf("%w: %s", constants.ErrNotRegistered, constants.MsgNotSignedUp)
		}
		if len(existing) > 1 {
			// Rows predating the uniqueness constraint; withdraw all of
			// them to normalize the pair.
			logging.Warn("Withdrawing multiple participation rows for pair",
				"user_id", userID,
				"activity_id", activityID,
				"count", len(existing),
			)
		}

		for i := range existing {
			existing[i].State = string(constants.StateWithdrawn)
			existing[i].Deleted = true
		}
		if err := tx.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to withdraw participations: %w", err)
		}

		logging.Info("Participation withdrawn",
			"user_id", userID,
			"activity_id", activityID,
		)
		return nil
	})
}

// UpdateDetail validates and encodes a detail payload against the activity's
// template and persists it on the active participation row. For
// donation-bearing templates the ledger is consulted first and its failure
// aborts the whole update; the detail and its transaction id are written
// together or not at all. Returns the template id the detail was encoded
// against.
func (svc *ParticipationService) UpdateDetail(ctx context.Context, userID, activityID int, detailMap map[string]interface{}) (int, error) {
	templateID := 0
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var activity models.Activity
		if err := tx.Where("id = ?", activityID).First(&activity).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", constants.ErrNotFound, constants.MsgActivityNotFound)
			}
			return fmt.Errorf("failed to fetch activity: %w", err)
		}

		var existing []models.Participation
		if err := tx.Where("user_id = ? AND activity_id = ?", userID, activityID).
			Order("created_at DESC").
			Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to fetch participations: %w", err)
		}
		if len(existing) == 0 {
			return fmt.Errorf("%w: %s", constants.ErrNotRegistered, constants.MsgNotSignedUp)
		}

		record := existing[0]
		if !record.IsActive() {
			return fmt.Errorf("%w: %s", constants.ErrInvalidState, constants.MsgNotActive)
		}

		if activity.TemplateID == nil {
			return fmt.Errorf("%w: %s", constants.ErrUnsupportedTemplate, constants.MsgNoTemplateAssigned)
		}
		templateID = *activity.TemplateID

		detail, err := svc.codec.Encode(ctx, *activity.TemplateID, detailMap, &EncodeContext{
			UserID:     userID,
			ActivityID: activityID,
			Duration:   activity.Duration,
			Ledger:     svc.ledger,
		})
		if err != nil {
			return err
		}

		blob, err := svc.codec.EncodeToBlob(detail)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{"detail": blob}
		if txID := ledgerTxIDOf(detail); txID != "" {
			updates["ledger_tx_id"] = txID
		}

		if err := tx.Model(&models.Participation{}).
			Where("id = ?", record.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update detail: %w", err)
		}

		logging.Info("Participation detail updated",
			"user_id", userID,
			"activity_id", activityID,
			"template_id", *activity.TemplateID,
		)
		return nil
	})
	return templateID, err
}

// VerifyLedgerTransaction checks the participation's stored ledger transaction
// id with the ledger service.
func (svc *ParticipationService) VerifyLedgerTransaction(ctx context.Context, userID, activityID int) (string, bool, error) {
	var existing []models.Participation
	err := svc.db.WithContext(ctx).
		Where("user_id = ? AND activity_id = ? AND deleted = ?", userID, activityID, false).
		Order("created_at DESC").
		Find(&existing).Error
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch participations: %w", err)
	}
	if len(existing) == 0 {
		return "", false, fmt.Errorf("%w: %s", constants.ErrNotRegistered, constants.MsgNotSignedUp)
	}

	record := existing[0]
	if record.LedgerTxID == nil || *record.LedgerTxID == "" {
		return "", false, fmt.Errorf("%w: no ledger transaction recorded", constants.ErrInvalidState)
	}

	valid, err := svc.ledger.VerifyTransaction(ctx, *record.LedgerTxID)
	if err != nil {
		return *record.LedgerTxID, false, err
	}
	return *record.LedgerTxID, valid, nil
}

// requirePair ensures both sides of a participation exist.
func requirePair(tx *gorm.DB, userID, activityID int) error {
	var activity models.Activity
	if err := tx.Select("id").Where("id = ?", activityID).First(&activity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", constants.ErrNotFound, constants.MsgActivityNotFound)
		}
		return fmt.Errorf("failed to fetch activity: %w", err)
	}

	var user models.User
	if err := tx.Select("id").Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", constants.ErrNotFound, constants.MsgUserNotFound)
		}
		return fmt.Errorf("failed to fetch user: %w", err)
	}
	return nil
}

// ledgerTxIDOf extracts the ledger transaction id a codec encode produced.
func ledgerTxIDOf(detail dtos.Detail) string {
	switch d := detail.(type) {
	case dtos.DonationDetail:
		return d.LedgerTxID
	case dtos.DurationDetail:
		return d.LedgerTxID
	}
	return ""
}
