package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"csr-collective/engage/internal/constants"
	"csr-collective/engage/internal/metrics"
	"csr-collective/engage/internal/models/dtos"
	gormModels "csr-collective/engage/internal/models/gorm"
	"csr-collective/engage/internal/services"
)

// promauto registers on the default registerer, so one registry per test binary
var testMetrics = metrics.NewMetricsRegistry()

// Mock LedgerProvider
type mockLedgerProvider struct {
	recordDonationFunc func(ctx context.Context, userID int, comment string, amount decimal.Decimal) (string, error)
}

func (m *mockLedgerProvider) RecordDonation(ctx context.Context, userID int, comment string, amount decimal.Decimal) (string, error) {
	if m.recordDonationFunc == nil {
		return "tx-0", nil
	}
	return m.recordDonationFunc(ctx, userID, comment, amount)
}

func (m *mockLedgerProvider) VerifyTransaction(ctx context.Context, txID string) (bool, error) {
	return true, nil
}

func setupHandlerTest(t *testing.T) (*gorm.DB, chi.Router) {
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

	svc := services.NewParticipationService(db, &mockLedgerProvider{})

	r := chi.NewRouter()
	r.Post("/activities/{activityId}/signup", SignupActivityHandler(svc, testMetrics))
	r.Post("/activities/{activityId}/withdraw", WithdrawActivityHandler(svc, testMetrics))
	r.Put("/activities/{activityId}/detail", UpdateDetailHandler(svc, testMetrics))

	return db, r
}

func seedPair(t *testing.T, db *gorm.DB, templateID *int) (gormModels.User, gormModels.Activity) {
	event := gormModels.Event{
		Name:      "Charity Run",
		Status:    string(constants.EventActive),
		StartTime: timePtr(time.Now().Add(-time.Hour)),
		EndTime:   timePtr(time.Now().Add(24 * time.Hour)),
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("Failed to seed event: %v", err)
	}

	activity := gormModels.Activity{
		EventID:    event.ID,
		Name:       "5k run",
		TemplateID: templateID,
		StartTime:  timePtr(time.Now().Add(-time.Hour)),
		EndTime:    timePtr(time.Now().Add(2 * time.Hour)),
	}
	if err := db.Create(&activity).Error; err != nil {
		t.Fatalf("Failed to seed activity: %v", err)
	}

	user := gormModels.User{Username: "alice", DisplayName: "alice", IsActive: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user, activity
}

func postJSON(t *testing.T, router chi.Router, method, url string, body interface{}) *httptest.ResponseRecorder {
	bodyBytes, _ := json.Marshal(body)
	req := httptest.NewRequest(method, url, bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestSignupActivityHandler_Success(t *testing.T) {
	db, router := setupHandlerTest(t)
	templateID := constants.TemplateBasic
	user, activity := seedPair(t, db, &templateID)

	rr := postJSON(t, router, "POST", "/activities/"+itoa(activity.ID)+"/signup", dtos.SignupRequest{UserID: user.ID})

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var count int64
	db.Model(&gormModels.Participation{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 participation row, got %d", count)
	}
}

func TestSignupActivityHandler_Conflict(t *testing.T) {
	db, router := setupHandlerTest(t)
	templateID := constants.TemplateBasic
	user, activity := seedPair(t, db, &templateID)

	url := "/activities/" + itoa(activity.ID) + "/signup"
	if rr := postJSON(t, router, "POST", url, dtos.SignupRequest{UserID: user.ID}); rr.Code != http.StatusOK {
		t.Fatalf("First sign-up failed: %d", rr.Code)
	}

	rr := postJSON(t, router, "POST", url, dtos.SignupRequest{UserID: user.ID})
	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", rr.Code)
	}
}

func TestSignupActivityHandler_UnknownActivity(t *testing.T) {
	db, router := setupHandlerTest(t)
	templateID := constants.TemplateBasic
	user, _ := seedPair(t, db, &templateID)

	rr := postJSON(t, router, "POST", "/activities/9999/signup", dtos.SignupRequest{UserID: user.ID})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rr.Code)
	}
}

func TestSignupActivityHandler_BadActivityID(t *testing.T) {
	_, router := setupHandlerTest(t)

	rr := postJSON(t, router, "POST", "/activities/abc/signup", dtos.SignupRequest{UserID: 1})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
}

func TestWithdrawActivityHandler_NotRegistered(t *testing.T) {
	db, router := setupHandlerTest(t)
	templateID := constants.TemplateBasic
	user, activity := seedPair(t, db, &templateID)

	rr := postJSON(t, router, "POST", "/activities/"+itoa(activity.ID)+"/withdraw", dtos.SignupRequest{UserID: user.ID})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
}

func TestUpdateDetailHandler_InvalidAmount(t *testing.T) {
	db, router := setupHandlerTest(t)
	templateID := constants.TemplateDonation
	user, activity := seedPair(t, db, &templateID)

	signupURL := "/activities/" + itoa(activity.ID) + "/signup"
	if rr := postJSON(t, router, "POST", signupURL, dtos.SignupRequest{UserID: user.ID}); rr.Code != http.StatusOK {
		t.Fatalf("Sign-up failed: %d", rr.Code)
	}

	rr := postJSON(t, router, "PUT", "/activities/"+itoa(activity.ID)+"/detail", dtos.DetailUpdateRequest{
		UserID: user.ID,
		Detail: map[string]interface{}{"comment": "gift", "amount": "0.009"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestUpdateDetailHandler_LedgerDown(t *testing.T) {
	db, _ := setupHandlerTest(t)

	failing := services.NewParticipationService(db, &mockLedgerProvider{
		recordDonationFunc: func(ctx context.Context, userID int, comment string, amount decimal.Decimal) (string, error) {
			return "", constants.ErrLedgerUnavailable
		},
	})
	r := chi.NewRouter()
	r.Post("/activities/{activityId}/signup", SignupActivityHandler(failing, testMetrics))
	r.Put("/activities/{activityId}/detail", UpdateDetailHandler(failing, testMetrics))

	templateID := constants.TemplateDonation
	user, activity := seedPair(t, db, &templateID)

	signupURL := "/activities/" + itoa(activity.ID) + "/signup"
	if rr := postJSON(t, r, "POST", signupURL, dtos.SignupRequest{UserID: user.ID}); rr.Code != http.StatusOK {
		t.Fatalf("Sign-up failed: %d", rr.Code)
	}

	rr := postJSON(t, r, "PUT", "/activities/"+itoa(activity.ID)+"/detail", dtos.DetailUpdateRequest{
		UserID: user.ID,
		Detail: map[string]interface{}{"comment": "gift", "amount": "10.00"},
	})
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d: %s", rr.Code, rr.Body.String())
	}
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func timePtr(v time.Time) *time.Time { return &v }
