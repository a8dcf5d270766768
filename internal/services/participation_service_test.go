package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"csr-collective/engage/internal/constants"
	gormModels "csr-collective/engage/internal/models/gorm"
)

// Mock LedgerProvider
type mockLedgerProvider struct {
	recordDonationFunc    func(ctx context.Context, userID int, comment string, amount decimal.Decimal) (string, error)
	verifyTransactionFunc func(ctx context.Context, txID string) (bool, error)
}

func (m *mockLedgerProvider) RecordDonation(ctx context.Context, userID int, comment string, amount decimal.Decimal) (string, error) {
	if m.recordDonationFunc == nil {
		return "tx-0", nil
	}
	return m.recordDonationFunc(ctx, userID, comment, amount)
}

func (m *mockLedgerProvider) VerifyTransaction(ctx context.Context, txID string) (bool, error) {
	if m.verifyTransactionFunc == nil {
		return true, nil
	}
	return m.verifyTransactionFunc(ctx, txID)
}

// Setup test database
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&gormModels.User{},
		&gormModels.Event{},
		&gormModels.Activity{},
		&gormModels.Participation{},
	); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db
}

func seedEvent(t *testing.T, db *gorm.DB) gormModels.Event {
	event := gormModels.Event{
		Name:      "Coastal Cleanup 2026",
		Location:  "Pier 39",
		Status:    string(constants.EventActive),
		StartTime: timePtr(time.Now().Add(-time.Hour)),
		EndTime:   timePtr(time.Now().Add(24 * time.Hour)),
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("Failed to seed event: %v", err)
	}
	return event
}

func seedActivity(t *testing.T, db *gorm.DB, eventID int, templateID *int, duration *int) gormModels.Activity {
	activity := gormModels.Activity{
		EventID:    eventID,
		Name:       "Beach sweep",
		TemplateID: templateID,
		Duration:   duration,
		StartTime:  timePtr(time.Now().Add(-time.Hour)),
		EndTime:    timePtr(time.Now().Add(2 * time.Hour)),
	}
	if err := db.Create(&activity).Error; err != nil {
		t.Fatalf("Failed to seed activity: %v", err)
	}
	return activity
}

func seedUser(t *testing.T, db *gorm.DB, username string) gormModels.User {
	user := gormModels.User{
		Username:    username,
		DisplayName: username,
		IsActive:    true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func TestParticipationService_SignUp_Success(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, intPtr(constants.TemplateBasic), intPtr(30))
	user := seedUser(t, db, "alice")

	service := NewParticipationService(db, &mockLedgerProvider{})

	if err := service.SignUp(context.Background(), user.ID, activity.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var record gormModels.Participation
	if err := db.Where("user_id = ? AND activity_id = ?", user.ID, activity.ID).First(&record).Error; err != nil {
		t.Fatalf("Expected participation row, got %v", err)
	}
	if record.State != string(constants.StateSignedUp) {
		t.Errorf("Expected state %s, got %s", constants.StateSignedUp, record.State)
	}
	if record.Deleted {
		t.Error("Expected row not to be soft-deleted")
	}
}

func TestParticipationService_SignUp_AlreadyRegistered(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, intPtr(constants.TemplateBasic), intPtr(30))
	user := seedUser(t, db, "alice")

	service := NewParticipationService(db, &mockLedgerProvider{})
	ctx := context.Background()

	if err := service.SignUp(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("First sign-up failed: %v", err)
	}

	err := service.SignUp(ctx, user.ID, activity.ID)
	if !errors.Is(err, constants.ErrAlreadyRegistered) {
		t.Fatalf("Expected ErrAlreadyRegistered, got %v", err)
	}

	var count int64
	db.Model(&gormModels.Participation{}).Where("user_id = ? AND activity_id = ?", user.ID, activity.ID).Count(&count)
	if count != 1 {
		t.Errorf("Expected exactly 1 row, got %d", count)
	}
}

func TestParticipationService_SignUp_ConcurrentDuplicate(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, intPtr(constants.TemplateBasic), intPtr(30))
	user := seedUser(t, db, "alice")

	// Simulate a rival sign-up landing between the service's read and its
	// insert: slip the conflicting row in just before gorm:create runs, so
	// the create hits the unique index instead of the read-path check.
	injected := false
	cbErr := db.Callback().Create().Before("gorm:create").Register("rival_signup", func(stmt *gorm.DB) {
		if injected {
			return
		}
		if _, ok := stmt.Statement.Dest.(*gormModels.Participation); !ok {
			return
		}
		injected = true
		stmt.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO participations (user_id, activity_id, state, deleted, created_at) VALUES (?, ?, ?, ?, ?)",
			user.ID, activity.ID, string(constants.StateSignedUp), false, time.Now(),
		)
	})
	if cbErr != nil {
		t.Fatalf("Failed to register callback: %v", cbErr)
	}

	service := NewParticipationService(db, &mockLedgerProvider{})
	ctx := context.Background()

	err := service.SignUp(ctx, user.ID, activity.ID)
	if !errors.Is(err, constants.ErrAlreadyRegistered) {
		t.Fatalf("Expected ErrAlreadyRegistered from the constraint race, got %v", err)
	}

	// The losing transaction must leave no partial state behind; a retry
	// goes through cleanly and exactly one row survives.
	if err := service.SignUp(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("Retry after lost race failed: %v", err)
	}

	var count int64
	db.Model(&gormModels.Participation{}).Where("user_id = ? AND activity_id = ?", user.ID, activity.ID).Count(&count)
	if count != 1 {
		t.Errorf("Expected a single surviving row, got %d", count)
	}
}

func TestParticipationService_SignUp_ActivityNotFound(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "alice")

	service := NewParticipationService(db, &mockLedgerProvider{})

	err := service.SignUp(context.Background(), user.ID, 9999)
	if !errors.Is(err, constants.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestParticipationService_SignUp_UserNotFound(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, intPtr(constants.TemplateBasic), intPtr(30))

	service := NewParticipationService(db, &mockLedgerProvider{})

	err := service.SignUp(context.Background(), 9999, activity.ID)
	if !errors.Is(err, constants.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestParticipationService_ReSignUp_ReactivatesSameRow(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, intPtr(constants.TemplateBasic), intPtr(30))
	user := seedUser(t, db, "alice")

	service := NewParticipationService(db, &mockLedgerProvider{})
	ctx := context.Background()

	if err := service.SignUp(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("Sign-up failed: %v", err)
	}

	var original gormModels.Participation
	db.Where("user_id = ? AND activity_id = ?", user.ID, activity.ID).First(&original)

	// Leave a ledger id behind to prove re-sign-up keeps it
	txID := "tx-prior-cycle"
	db.Model(&original).Update("ledger_tx_id", txID)

	if err := service.Withdraw(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}

	firstSignedUpAt := original.CreatedAt
	time.Sleep(10 * time.Millisecond)

	if err := service.SignUp(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("Re-sign-up failed: %v", err)
	}

	var rows []gormModels.Participation
	db.Where("user_id = ? AND activity_id = ?", user.ID, activity.ID).Find(&rows)
	if len(rows) != 1 {
		t.Fatalf("Expected the same row to be reactivated, got %d rows", len(rows))
	}

	record := rows[0]
	if record.ID != original.ID {
		t.Errorf("Expected row id %d to be reused, got %d", original.ID, record.ID)
	}
	if record.State != string(constants.StateSignedUp) || record.Deleted {
		t.Errorf("Expected active SIGNED_UP row, got state=%s deleted=%v", record.State, record.Deleted)
	}
	if !record.CreatedAt.After(firstSignedUpAt) {
		t.Error("Expected sign-up time to be refreshed on reactivation")
	}
	if record.LedgerTxID == nil || *record.LedgerTxID != txID {
		t.Error("Expected prior ledger transaction id to survive re-sign-up")
	}
}

func TestParticipationService_Withdraw_NotRegistered(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, intPtr(constants.TemplateBasic), intPtr(30))
	user := seedUser(t, db, "alice")

	service := NewParticipationService(db, &mockLedgerProvider{})

	err := service.Withdraw(context.Background(), user.ID, activity.ID)
	if !errors.Is(err, constants.ErrNotRegistered) {
		t.Fatalf("Expected ErrNotRegistered, got %v", err)
	}
}

func TestParticipationService_Withdraw_Twice(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, intPtr(constants.TemplateBasic), intPtr(30))
	user := seedUser(t, db, "alice")

	service := NewParticipationService(db, &mockLedgerProvider{})
	ctx := context.Background()

	if err := service.SignUp(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("Sign-up failed: %v", err)
	}
	if err := service.Withdraw(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("First withdraw failed: %v", err)
	}

	err := service.Withdraw(ctx, user.ID, activity.ID)
	if !errors.Is(err, constants.ErrNotRegistered) {
		t.Fatalf("Expected ErrNotRegistered on second withdraw, got %v", err)
	}
}

func TestParticipationService_UpdateDetail_Donation(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, intPtr(constants.TemplateDonation), nil)
	user := seedUser(t, db, "alice")

	var recordedAmount decimal.Decimal
	ledger := &mockLedgerProvider{
		recordDonationFunc: func(ctx context.Context, userID int, comment string, amount decimal.Decimal) (string, error) {
			recordedAmount = amount
			return "tx-123", nil
		},
	}

	service := NewParticipationService(db, ledger)
	ctx := context.Background()

	if err := service.SignUp(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("Sign-up failed: %v", err)
	}

	templateID, err := service.UpdateDetail(ctx, user.ID, activity.ID, map[string]interface{}{
		"comment": "thanks",
		"amount":  "50.00",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if templateID != constants.TemplateDonation {
		t.Errorf("Expected template %d, got %d", constants.TemplateDonation, templateID)
	}
	if !recordedAmount.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("Expected 50.00 recorded on ledger, got %s", recordedAmount)
	}

	var record gormModels.Participation
	db.Where("user_id = ? AND activity_id = ?", user.ID, activity.ID).First(&record)
	if record.LedgerTxID == nil || *record.LedgerTxID != "tx-123" {
		t.Error("Expected ledger transaction id to be persisted with the detail")
	}

	detail := NewDetailCodec().Decode(constants.TemplateDonation, record.Detail)
	if detail == nil {
		t.Fatal("Expected stored detail to decode")
	}
	if detail.GetComment() != "thanks" {
		t.Errorf("Expected comment to round-trip, got %q", detail.GetComment())
	}
}

func TestParticipationService_UpdateDetail_LedgerFailureWritesNothing(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, intPtr(constants.TemplateDonation), nil)
	user := seedUser(t, db, "alice")

	ledger := &mockLedgerProvider{
		recordDonationFunc: func(ctx context.Context, userID int, comment string, amount decimal.Decimal) (string, error) {
			return "", constants.ErrLedgerUnavailable
		},
	}

	service := NewParticipationService(db, ledger)
	ctx := context.Background()

	if err := service.SignUp(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("Sign-up failed: %v", err)
	}

	_, err := service.UpdateDetail(ctx, user.ID, activity.ID, map[string]interface{}{
		"comment": "thanks",
		"amount":  "50.00",
	})
	if !errors.Is(err, constants.ErrLedgerUnavailable) {
		t.Fatalf("Expected ErrLedgerUnavailable, got %v", err)
	}

	var record gormModels.Participation
	db.Where("user_id = ? AND activity_id = ?", user.ID, activity.ID).First(&record)
	if len(record.Detail) != 0 {
		t.Error("Expected no detail persisted after ledger failure")
	}
	if record.LedgerTxID != nil {
		t.Error("Expected no ledger transaction id persisted after ledger failure")
	}
}

func TestParticipationService_UpdateDetail_NotRegistered(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, intPtr(constants.TemplateBasic), nil)
	user := seedUser(t, db, "alice")

	service := NewParticipationService(db, &mockLedgerProvider{})

	_, err := service.UpdateDetail(context.Background(), user.ID, activity.ID, map[string]interface{}{
		"comment": "hi",
	})
	if !errors.Is(err, constants.ErrNotRegistered) {
		t.Fatalf("Expected ErrNotRegistered, got %v", err)
	}
}

func TestParticipationService_UpdateDetail_WithdrawnRow(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, intPtr(constants.TemplateBasic), nil)
	user := seedUser(t, db, "alice")

	service := NewParticipationService(db, &mockLedgerProvider{})
	ctx := context.Background()

	if err := service.SignUp(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("Sign-up failed: %v", err)
	}
	if err := service.Withdraw(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}

	_, err := service.UpdateDetail(ctx, user.ID, activity.ID, map[string]interface{}{
		"comment": "hi",
	})
	if !errors.Is(err, constants.ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState, got %v", err)
	}
}

func TestParticipationService_UpdateDetail_NoTemplate(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, nil, intPtr(30))
	user := seedUser(t, db, "alice")

	service := NewParticipationService(db, &mockLedgerProvider{})
	ctx := context.Background()

	if err := service.SignUp(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("Sign-up failed: %v", err)
	}

	_, err := service.UpdateDetail(ctx, user.ID, activity.ID, map[string]interface{}{
		"comment": "hi",
	})
	if !errors.Is(err, constants.ErrUnsupportedTemplate) {
		t.Fatalf("Expected ErrUnsupportedTemplate, got %v", err)
	}
}

func TestParticipationService_VerifyLedgerTransaction(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, intPtr(constants.TemplateDonation), nil)
	user := seedUser(t, db, "alice")

	ledger := &mockLedgerProvider{
		recordDonationFunc: func(ctx context.Context, userID int, comment string, amount decimal.Decimal) (string, error) {
			return "tx-777", nil
		},
		verifyTransactionFunc: func(ctx context.Context, txID string) (bool, error) {
			return txID == "tx-777", nil
		},
	}

	service := NewParticipationService(db, ledger)
	ctx := context.Background()

	if err := service.SignUp(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("Sign-up failed: %v", err)
	}
	if _, err := service.UpdateDetail(ctx, user.ID, activity.ID, map[string]interface{}{
		"comment": "donation",
		"amount":  "10",
	}); err != nil {
		t.Fatalf("UpdateDetail failed: %v", err)
	}

	txID, valid, err := service.VerifyLedgerTransaction(ctx, user.ID, activity.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if txID != "tx-777" || !valid {
		t.Errorf("Expected valid tx-777, got %s valid=%v", txID, valid)
	}
}

func TestParticipationService_VerifyLedgerTransaction_NoTransaction(t *testing.T) {
	db := setupTestDB(t)
	event := seedEvent(t, db)
	activity := seedActivity(t, db, event.ID, intPtr(constants.TemplateBasic), nil)
	user := seedUser(t, db, "alice")

	service := NewParticipationService(db, &mockLedgerProvider{})
	ctx := context.Background()

	if err := service.SignUp(ctx, user.ID, activity.ID); err != nil {
		t.Fatalf("Sign-up failed: %v", err)
	}

	_, _, err := service.VerifyLedgerTransaction(ctx, user.ID, activity.ID)
	if !errors.Is(err, constants.ErrInvalidState) {
		t.Fatalf("Expected ErrInvalidState, got %v", err)
	}
}
