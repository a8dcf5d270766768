package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"csr-collective/engage/internal/constants"
	"csr-collective/engage/internal/logging"
	"csr-collective/engage/internal/models/dtos"
	"csr-collective/engage/internal/providers"
)

var minDonationAmount = decimal.RequireFromString(constants.MinDonationAmount)

// DetailCodec converts between loosely typed detail maps (API input), opaque
// persisted blobs (storage) and the closed set of Detail variants, keyed by
// the owning activity's template id.
type DetailCodec struct{}

// NewDetailCodec creates a new detail codec
func NewDetailCodec() *DetailCodec {
	return &DetailCodec{}
}

// EncodeContext carries the identifiers and collaborators templates need when
// encoding records the detail on the external ledger.
type EncodeContext struct {
	UserID     int
	ActivityID int
	// Duration is the owning activity's fixed time credit, used as the
	// implied amount for non-donation ledger templates.
	Duration *int
	Ledger   providers.LedgerProvider
}

// Encode validates a detail map against the template's rules and produces the
// typed variant. For donation-bearing templates the detail is first recorded
// on the ledger; a ledger failure aborts the encode so no detail is ever
// persisted without its transaction id.
func (c *DetailCodec) Encode(ctx context.Context, templateID int, detailMap map[string]interface{}, ec *EncodeContext) (dtos.Detail, error) {
	if len(detailMap) == 0 {
		return nil, fmt.Errorf("%w: detail payload is empty", constants.ErrMissingField)
	}

	comment, _ := detailMap["comment"].(string)
	if strings.TrimSpace(comment) == "" {
		return nil, fmt.Errorf("%w: %s", constants.ErrMissingField, constants.MsgCommentRequired)
	}

	switch templateID {
	case constants.TemplateBasic:
		return dtos.BasicDetail{Comment: comment}, nil

	case constants.TemplateDonation:
		amount, err := parseAmount(detailMap["amount"])
		if err != nil {
			return nil, err
		}

		detail := dtos.DonationDetail{Comment: comment, Amount: amount}
		if ec != nil && ec.Ledger != nil {
			txID, err := ec.Ledger.RecordDonation(ctx, ec.UserID, comment, amount)
			if err != nil {
				return nil, fmt.Errorf("failed to record donation: %w", err)
			}
			detail.LedgerTxID = txID
		}
		return detail, nil

	default:
		// Time-donation mode: a recognized non-donation template is
		// recorded on the ledger using the activity's fixed duration as
		// the amount. An activity without a duration cannot take it.
		if ec == nil || ec.Duration == nil {
			return nil, fmt.Errorf("%w: template %d", constants.ErrUnsupportedTemplate, templateID)
		}
		duration := *ec.Duration
		if duration < 1 {
			return nil, fmt.Errorf("%w: activity duration must be positive", constants.ErrInvalidAmount)
		}

		var txID string
		if ec.Ledger != nil {
			var err error
			txID, err = ec.Ledger.RecordDonation(ctx, ec.UserID, comment, decimal.NewFromInt(int64(duration)))
			if err != nil {
				return nil, fmt.Errorf("failed to record time credit: %w", err)
			}
		}
		return dtos.NewDurationDetail(templateID, comment, duration, txID), nil
	}
}

// Decode converts a persisted blob back into its typed variant. Malformed
// blobs yield nil rather than an error so reads stay available over
// historically corrupted rows; callers skip nil details.
func (c *DetailCodec) Decode(templateID int, raw []byte) dtos.Detail {
	if len(raw) == 0 {
		return nil
	}

	switch templateID {
	case constants.TemplateBasic:
		var detail dtos.BasicDetail
		if err := json.Unmarshal(raw, &detail); err != nil {
			logging.Warn("Failed to decode basic detail", "template_id", templateID, "error", err.Error())
			return nil
		}
		return detail

	case constants.TemplateDonation:
		var detail dtos.DonationDetail
		if err := json.Unmarshal(raw, &detail); err != nil {
			logging.Warn("Failed to decode donation detail", "template_id", templateID, "error", err.Error())
			return nil
		}
		return detail

	default:
		var stored struct {
			Comment    string `json:"comment"`
			Duration   int    `json:"duration"`
			LedgerTxID string `json:"ledgerTxId"`
		}
		if err := json.Unmarshal(raw, &stored); err != nil {
			logging.Warn("Failed to decode duration detail", "template_id", templateID, "error", err.Error())
			return nil
		}
		return dtos.NewDurationDetail(templateID, stored.Comment, stored.Duration, stored.LedgerTxID)
	}
}

// EncodeToBlob marshals an encoded detail for storage.
func (c *DetailCodec) EncodeToBlob(detail dtos.Detail) ([]byte, error) {
	blob, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal detail: %w", err)
	}
	return blob, nil
}

// parseAmount accepts numeric and numeric-string representations and enforces
// the donation minimum.
func parseAmount(v interface{}) (decimal.Decimal, error) {
	if v == nil {
		return decimal.Zero, fmt.Errorf("%w: %s", constants.ErrInvalidAmount, constants.MsgAmountRequired)
	}

	var amount decimal.Decimal
	switch t := v.(type) {
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: invalid amount format: %q", constants.ErrInvalidAmount, t)
		}
		amount = parsed
	case json.Number:
		parsed, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: invalid amount format: %q", constants.ErrInvalidAmount, t.String())
		}
		amount = parsed
	case float64:
		amount = decimal.NewFromFloat(t)
	case int:
		amount = decimal.NewFromInt(int64(t))
	case int64:
		amount = decimal.NewFromInt(t)
	default:
		return decimal.Zero, fmt.Errorf("%w: amount must be a number or string, got %T", constants.ErrInvalidAmount, v)
	}

	if amount.LessThan(minDonationAmount) {
		return decimal.Zero, fmt.Errorf("%w: %s", constants.ErrInvalidAmount, constants.MsgAmountTooSmall)
	}
	return amount, nil
}
