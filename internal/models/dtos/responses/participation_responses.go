package responses

import (
	"time"

	"github.com/shopspring/decimal"

	"csr-collective/engage/internal/constants"
	"csr-collective/engage/internal/models/dtos"
)

// ActivityAggregate is the computed per-activity view. Never persisted.
type ActivityAggregate struct {
	ActivityID        int `json:"activityId"`
	TotalParticipants int `json:"totalParticipants"`
	TotalTime         int `json:"totalTime"`
}

// EventAggregate is the computed per-event view. Never persisted.
type EventAggregate struct {
	EventID           int             `json:"eventId"`
	TotalParticipants int             `json:"totalParticipants"`
	TotalTime         int             `json:"totalTime"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
}

// ParticipationView joins activity business fields with the user's
// participation record for listing endpoints.
type ParticipationView struct {
	ParticipationID int                      `json:"participationId"`
	UserID          int                      `json:"userId"`
	ActivityID      int                      `json:"activityId"`
	ActivityName    string                   `json:"activityName"`
	Duration        int                      `json:"duration"`
	ActivityStatus  constants.ActivityStatus `json:"activityStatus"`
	State           string                   `json:"state"`
	EndorsedBy      *int                     `json:"endorsedBy,omitempty"`
	EndorsedAt      *time.Time               `json:"endorsedAt,omitempty"`
	LedgerTxID      *string                  `json:"ledgerTxId,omitempty"`
	SignedUpAt      time.Time                `json:"signedUpAt"`
	Detail          dtos.Detail              `json:"detail,omitempty"`
}

// UserDetail is one decoded detail entry in the per-user details listing.
type UserDetail struct {
	ActivityID int         `json:"activityId"`
	TemplateID int         `json:"templateId"`
	Detail     dtos.Detail `json:"detail"`
}

// UserDetailsResponse lists every decoded detail a user has recorded.
type UserDetailsResponse struct {
	Details []UserDetail `json:"details"`
}

// VerifyResponse reports a ledger verification outcome.
type VerifyResponse struct {
	LedgerTxID string `json:"ledgerTxId"`
	Valid      bool   `json:"valid"`
}

// ParticipationCount is the bare headcount view for an activity.
type ParticipationCount struct {
	ActivityID        int `json:"activityId"`
	TotalParticipants int `json:"totalParticipants"`
}
