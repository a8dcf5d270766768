package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"csr-collective/engage/internal/constants"
	"csr-collective/engage/internal/logging"
	"csr-collective/engage/internal/metrics"
)

// LedgerProvider is the contract this core requires from the external ledger
// service. Donations are recorded immutably and can later be verified against
// the transaction id returned here.
type LedgerProvider interface {
	RecordDonation(ctx context.Context, userID int, comment string, amount decimal.Decimal) (string, error)
	VerifyTransaction(ctx context.Context, txID string) (bool, error)
}

// HTTPLedgerProvider implements LedgerProvider against the ledger's REST API
type HTTPLedgerProvider struct {
	BaseURL string
	Client  *http.Client
	Metrics *metrics.MetricsRegistry
}

var _ LedgerProvider = (*HTTPLedgerProvider)(nil)

// NewHTTPLedgerProvider creates a ledger provider from environment config
func NewHTTPLedgerProvider(metricsReg *metrics.MetricsRegistry) *HTTPLedgerProvider {
	baseURL := os.Getenv("LEDGER_API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8081" // Default
	}

	return &HTTPLedgerProvider{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
		Metrics: metricsReg,
	}
}

// observe records one ledger call's outcome and latency.
func (p *HTTPLedgerProvider) observe(outcome string, start time.Time) {
	if p.Metrics == nil {
		return
	}
	p.Metrics.LedgerRequestsTotal.WithLabelValues(outcome).Inc()
	p.Metrics.LedgerRequestDuration.Observe(time.Since(start).Seconds())
}

// ledgerTransaction mirrors exactly the comment/amount pair persisted on the
// participation detail, so a later verify call is meaningful.
type ledgerTransaction struct {
	Comment string          `json:"comment"`
	Amount  decimal.Decimal `json:"amount"`
}

type ledgerTransactionRequest struct {
	Sender      int               `json:"sender"`
	Recipient   string            `json:"recipient"`
	Endorser    string            `json:"endorser"`
	Transaction ledgerTransaction `json:"transaction"`
	UUID        string            `json:"uuid"`
}

type ledgerVerifyResponse struct {
	Valid bool `json:"valid"`
}

// RecordDonation submits a donation to the ledger and returns its transaction id
func (p *HTTPLedgerProvider) RecordDonation(ctx context.Context, userID int, comment string, amount decimal.Decimal) (string, error) {
	start := time.Now()
	reqBody := ledgerTransactionRequest{
		Sender:    userID,
		Recipient: "admin",
		Endorser:  "admin",
		Transaction: ledgerTransaction{
			Comment: comment,
			Amount:  amount,
		},
		UUID: uuid.NewString(),
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal ledger request: %w", err)
	}

	url := p.BaseURL + "/api/transactions/add"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build ledger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		p.observe("unavailable", start)
		return "", fmt.Errorf("%w: %v", constants.ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.observe("unavailable", start)
		return "", fmt.Errorf("%w: reading response: %v", constants.ErrLedgerUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Error("Ledger rejected donation",
			"user_id", userID,
			"status_code", resp.StatusCode,
		)
		p.observe("rejected", start)
		return "", fmt.Errorf("%w: status %d", constants.ErrLedgerRejected, resp.StatusCode)
	}

	txID := string(bytes.TrimSpace(body))
	if txID == "" {
		p.observe("rejected", start)
		return "", fmt.Errorf("%w: empty transaction id", constants.ErrLedgerRejected)
	}

	p.observe("success", start)
	logging.Info("Recorded donation on ledger",
		"user_id", userID,
		"ledger_tx_id", txID,
	)
	return txID, nil
}

// VerifyTransaction checks a previously issued transaction id with the ledger
func (p *HTTPLedgerProvider) VerifyTransaction(ctx context.Context, txID string) (bool, error) {
	if txID == "" {
		return false, fmt.Errorf("%w: empty transaction id", constants.ErrLedgerRejected)
	}
	start := time.Now()

	url := fmt.Sprintf("%s/api/blockchain/transactions/%s/verify", p.BaseURL, txID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		p.observe("unavailable", start)
		return false, fmt.Errorf("%w: %v", constants.ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.observe("rejected", start)
		return false, fmt.Errorf("%w: status %d", constants.ErrLedgerRejected, resp.StatusCode)
	}

	var result ledgerVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		p.observe("unavailable", start)
		return false, fmt.Errorf("%w: decoding response: %v", constants.ErrLedgerUnavailable, err)
	}

	p.observe("success", start)
	return result.Valid, nil
}
