// Package compliance implements the compliance gate the transaction
// processor calls before posting: a black-box screening decision plus,
// separately, alert creation triggered by the Event Bridge on fraud
// REVIEW/BLOCK decisions arriving from the external scoring engine.
package compliance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	nexumerrors "github.com/nexum-core/nexum/infrastructure/errors"
	"github.com/nexum-core/nexum/pkg/money"
	"github.com/nexum-core/nexum/pkg/storage"
)

// Action is the gate's verdict on a single transaction.
type Action string

const (
	ActionAllow Action = "ALLOW"
	ActionFlag  Action = "FLAG"
	ActionBlock Action = "BLOCK"
)

// Check is the outcome of a single compliance screening call.
type Check struct {
	Action     Action
	Violations []string
}

// Alert is a compliance case raised against a customer or transaction,
// typically from an external fraud decision rather than the gate itself.
type Alert struct {
	ID           string
	CustomerID   string
	TransactionID string
	Reason       string
	Severity     string
	CreatedAt    time.Time
	Resolved     bool
}

// Gate screens a transaction and records alerts raised about it.
type Gate interface {
	CheckTransaction(ctx context.Context, customerID, accountID string, amount money.Money, txnType, txnID string) (Check, error)
	CreateAlert(ctx context.Context, customerID, transactionID, reason, severity string) (Alert, error)
}

// StoredGate is a Gate backed by the core's own storage — suitable as a
// local reference implementation and for tests; a deployment talking to
// a real screening engine would implement Gate with an HTTP client the
// same way domain/fraud.Client does, and delegate CreateAlert to this
// type, since alert persistence is not the external engine's job.
type StoredGate struct {
	store storage.Store
	log   *logrus.Entry

	// flagThreshold and blockThreshold are the two amount floors: an amount
	// at or above blockThreshold is blocked, otherwise one at or above
	// flagThreshold is flagged. Both are set by NewStoredGate; there is no
	// built-in default.
	flagThreshold  money.Money
	blockThreshold money.Money
}

// NewStoredGate builds a StoredGate. flagThreshold/blockThreshold gate
// screening purely on transaction amount, which is sufficient as a
// reference implementation — a production gate would also weigh
// velocity, geography, and customer risk tier (all of that detail is
// exactly what CheckTransaction treats as a black box the core does not
// implement, per spec's compliance-gate-is-external scope).
func NewStoredGate(store storage.Store, flagThreshold, blockThreshold money.Money, log *logrus.Entry) *StoredGate {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &StoredGate{store: store, log: log.WithField("component", "compliance"), flagThreshold: flagThreshold, blockThreshold: blockThreshold}
}

func (g *StoredGate) CheckTransaction(_ context.Context, _ string, _ string, amount money.Money, _ string, _ string) (Check, error) {
	if cmp, err := amount.Cmp(g.blockThreshold); err == nil && cmp >= 0 {
		return Check{Action: ActionBlock, Violations: []string{"amount exceeds block threshold"}}, nil
	}
	if cmp, err := amount.Cmp(g.flagThreshold); err == nil && cmp >= 0 {
		return Check{Action: ActionFlag, Violations: []string{"amount exceeds flag threshold"}}, nil
	}
	return Check{Action: ActionAllow}, nil
}

func (g *StoredGate) CreateAlert(ctx context.Context, customerID, transactionID, reason, severity string) (Alert, error) {
	a := Alert{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		TransactionID: transactionID,
		Reason:        reason,
		Severity:      severity,
		CreatedAt:     time.Now().UTC(),
	}
	record := map[string]interface{}{
		"id":             a.ID,
		"customer_id":    a.CustomerID,
		"transaction_id": a.TransactionID,
		"reason":         a.Reason,
		"severity":       a.Severity,
		"created_at":     a.CreatedAt,
		"resolved":       a.Resolved,
	}
	if err := g.store.Save(ctx, storage.TableNotifications, a.ID, record); err != nil {
		return Alert{}, nexumerrors.StorageUnavailable(err)
	}
	g.log.WithFields(logrus.Fields{"customer_id": customerID, "transaction_id": transactionID, "severity": severity}).Warn("compliance alert created")
	return a, nil
}

// AllowAllGate is a no-op Gate used by tests that don't exercise
// compliance screening.
type AllowAllGate struct{}

func (AllowAllGate) CheckTransaction(context.Context, string, string, money.Money, string, string) (Check, error) {
	return Check{Action: ActionAllow}, nil
}

func (AllowAllGate) CreateAlert(_ context.Context, customerID, transactionID, reason, severity string) (Alert, error) {
	return Alert{ID: uuid.NewString(), CustomerID: customerID, TransactionID: transactionID, Reason: reason, Severity: severity, CreatedAt: time.Now().UTC()}, nil
}
