package dtos

import (
	"github.com/shopspring/decimal"

	"csr-collective/engage/internal/constants"
)

// Detail is the closed set of participation detail payloads. The concrete
// variant is selected by the owning activity's template id, which is the only
// out-of-band schema lookup decode ever needs.
type Detail interface {
	TemplateID() int
	GetComment() string
}

// BasicDetail is the plain comment payload (template 1).
type BasicDetail struct {
	Comment string `json:"comment"`
}

func (BasicDetail) TemplateID() int { return constants.TemplateBasic }

func (d BasicDetail) GetComment() string { return d.Comment }

// DonationDetail is the monetary donation payload (template 2). LedgerTxID is
// set once the donation has been recorded on the external ledger.
type DonationDetail struct {
	Comment    string          `json:"comment"`
	Amount     decimal.Decimal `json:"amount"`
	LedgerTxID string          `json:"ledgerTxId,omitempty"`
}

func (DonationDetail) TemplateID() int { return constants.TemplateDonation }

func (d DonationDetail) GetComment() string { return d.Comment }

// DurationDetail is the time-credit payload used when a non-donation template
// is recorded on the ledger with the activity's fixed duration as the amount.
type DurationDetail struct {
	Comment    string `json:"comment"`
	Duration   int    `json:"duration"`
	LedgerTxID string `json:"ledgerTxId,omitempty"`

	templateID int
}

// NewDurationDetail builds a DurationDetail tagged with the template id of the
// activity it was encoded for.
func NewDurationDetail(templateID int, comment string, duration int, ledgerTxID string) DurationDetail {
	return DurationDetail{
		Comment:    comment,
		Duration:   duration,
		LedgerTxID: ledgerTxID,
		templateID: templateID,
	}
}

func (d DurationDetail) TemplateID() int { return d.templateID }

func (d DurationDetail) GetComment() string { return d.Comment }
