// Package fraud implements the synchronous fraud-scoring gate the
// transaction processor calls before posting a transaction. Grounded on
// original_source/core_banking/fraud_client.py's BastionClient: a REST
// client with a short timeout and a fail-open/fail-closed fallback when
// the scoring engine is unreachable, so a scoring-engine outage degrades
// gracefully instead of stalling every transaction.
package fraud

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/nexum-core/nexum/infrastructure/httputil"
	"github.com/nexum-core/nexum/pkg/money"
)

// Decision is the scoring engine's verdict on a transaction.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReview  Decision = "REVIEW"
	DecisionBlock   Decision = "BLOCK"
)

// RiskLevel buckets the numeric score for display and alerting.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
	RiskUnknown  RiskLevel = "UNKNOWN"
)

// Score is the result of scoring one transaction.
type Score struct {
	Value      float64
	Decision   Decision
	RiskLevel  RiskLevel
	Reasons    []string
	LatencyMs  float64
}

// Request is the transaction data sent to the scoring engine.
type Request struct {
	TransactionID   string
	CustomerID      string
	Amount          money.Money
	MerchantID      string
	MerchantCat     string
	Channel         string
	Country         string
	TransactionType string
}

// Scorer scores a transaction for fraud risk.
type Scorer interface {
	Score(ctx context.Context, req Request) (Score, error)
}

// Client is a REST client for an external fraud-scoring engine.
type Client struct {
	baseURL         string
	apiKey          string
	enabled         bool
	fallbackOnError Decision
	http            *http.Client
}

// Option configures a Client.
type Option func(*Client)

func WithAPIKey(key string) Option { return func(c *Client) { c.apiKey = key } }
func WithDisabled() Option         { return func(c *Client) { c.enabled = false } }
func WithFallback(d Decision) Option {
	return func(c *Client) { c.fallbackOnError = d }
}

// NewClient builds a Client pointed at baseURL with a 2-second default
// timeout — long enough for a real scoring call, short enough not to
// stall a transaction behind a slow or wedged scoring engine.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	c := &Client{
		baseURL:         baseURL,
		enabled:         true,
		fallbackOnError: DecisionApprove,
		http:            httputil.CopyHTTPClientWithTimeout(nil, timeout, true),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type scoreRequestWire struct {
	TransactionID string  `json:"transaction_id"`
	CifID         string  `json:"cif_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	MerchantID    string  `json:"merchant_id"`
	MerchantCat   string  `json:"merchant_category"`
	Channel       string  `json:"channel"`
	Country       string  `json:"country"`
	Timestamp     int64   `json:"timestamp"`
}

type scoreResponseWire struct {
	RiskScore float64  `json:"risk_score"`
	Action    string   `json:"action"`
	Reasons   []string `json:"reasons"`
}

// Score calls the external engine's /score endpoint. A disabled client
// approves with a "fraud_scoring_disabled" reason. On a network failure,
// a non-200 response or an undecodable body it returns the client's
// configured fallback decision rather than an error — a scoring outage
// must never itself block or crash a transaction.
func (c *Client) Score(ctx context.Context, req Request) (Score, error) {
	if !c.enabled {
		return Score{Decision: DecisionApprove, RiskLevel: RiskLow, Reasons: []string{"fraud_scoring_disabled"}}, nil
	}

	start := time.Now()
	amount, _ := req.Amount.Amount.Float64()
	wire := scoreRequestWire{
		TransactionID: req.TransactionID,
		CifID:         req.CustomerID,
		Amount:        amount,
		Currency:      string(req.Amount.Currency),
		MerchantID:    req.MerchantID,
		MerchantCat:   req.MerchantCat,
		Channel:       req.Channel,
		Country:       req.Country,
		Timestamp:     start.Unix(),
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return c.fallback(0), nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return c.fallback(0), nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	latency := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		return c.fallback(latency), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return c.fallback(latency), nil
	}

	var wireResp scoreResponseWire
	if err := json.NewDecoder(resp.Body).Decode(&wireResp); err != nil {
		return c.fallback(latency), nil
	}

	action := Decision(wireResp.Action)
	if action == "" {
		action = DecisionApprove
	}
	return Score{
		Value:     wireResp.RiskScore,
		Decision:  action,
		RiskLevel: mapRiskLevel(wireResp.RiskScore),
		Reasons:   wireResp.Reasons,
		LatencyMs: latency,
	}, nil
}

func (c *Client) fallback(latencyMs float64) Score {
	return Score{Decision: c.fallbackOnError, RiskLevel: RiskUnknown, Reasons: []string{"fraud_engine_unavailable"}, LatencyMs: latencyMs}
}

func mapRiskLevel(score float64) RiskLevel {
	switch {
	case score >= 0.8:
		return RiskCritical
	case score >= 0.6:
		return RiskHigh
	case score >= 0.3:
		return RiskMedium
	default:
		return RiskLow
	}
}

// MockScorer scores purely on transaction amount, matching
// fraud_client.py's MockBastionClient thresholds exactly: it exists for
// tests and for environments with no scoring engine deployed.
type MockScorer struct{}

func (MockScorer) Score(_ context.Context, req Request) (Score, error) {
	amount := req.Amount.Amount.InexactFloat64()
	switch {
	case amount > 50000:
		return Score{Value: 0.85, Decision: DecisionBlock, RiskLevel: RiskCritical, Reasons: []string{"high_amount"}, LatencyMs: 1.0}, nil
	case amount > 10000:
		return Score{Value: 0.55, Decision: DecisionReview, RiskLevel: RiskHigh, Reasons: []string{"large_amount"}, LatencyMs: 1.0}, nil
	case amount > 5000:
		return Score{Value: 0.35, Decision: DecisionReview, RiskLevel: RiskMedium, Reasons: []string{"medium_amount"}, LatencyMs: 1.0}, nil
	default:
		return Score{Value: 0.1, Decision: DecisionApprove, RiskLevel: RiskLow, LatencyMs: 1.0}, nil
	}
}
