package transaction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nexum-core/nexum/domain/account"
	"github.com/nexum-core/nexum/domain/audit"
	"github.com/nexum-core/nexum/domain/compliance"
	"github.com/nexum-core/nexum/domain/fraud"
	"github.com/nexum-core/nexum/domain/ledger"
	nexumerrors "github.com/nexum-core/nexum/infrastructure/errors"
	"github.com/nexum-core/nexum/pkg/money"
	"github.com/nexum-core/nexum/pkg/storage"
	"github.com/nexum-core/nexum/system/events"
)

// SystemAccounts is the fixed table of bookkeeping account ids the
// processor posts the external leg of a transaction against. Resolving
// an Open Question spec.md leaves open (the original hardcodes strings
// like EXT_DEP_001): here it is a small struct seeded once at startup,
// not discovered dynamically.
type SystemAccounts struct {
	ExternalDeposits    string
	ExternalWithdrawals string
	ExternalPayments    string
	ExternalTransfers   string
	FeeIncome           string
	InterestExpense     string
	InterestIncome      string
	Adjustments         string
}

// Processor is the transaction state machine and posting pipeline — the
// heart of the core.
type Processor struct {
	store      storage.Store
	ledger     *ledger.Ledger
	accounts   account.Manager
	compliance compliance.Gate
	fraud      fraud.Scorer
	dispatcher *events.Dispatcher
	trail      *audit.Trail
	system     SystemAccounts
	log        *logrus.Entry
}

// New constructs a Processor.
func New(store storage.Store, l *ledger.Ledger, accounts account.Manager, gate compliance.Gate, scorer fraud.Scorer, dispatcher *events.Dispatcher, trail *audit.Trail, system SystemAccounts, log *logrus.Entry) *Processor {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Processor{
		store: store, ledger: l, accounts: accounts, compliance: gate, fraud: scorer,
		dispatcher: dispatcher, trail: trail, system: system,
		log: log.WithField("component", "transaction_processor"),
	}
}

// CreateInput is the caller-supplied payload for CreateTransaction.
type CreateInput struct {
	Type           Type
	Amount         money.Money
	Description    string
	Channel        Channel
	FromAccountID  string
	ToAccountID    string
	Reference      string
	IdempotencyKey string
	Metadata       map[string]interface{}
}

// CreateTransaction validates input, resolves idempotency, and persists
// a new transaction in PENDING. If idempotency-key matches an existing
// transaction, that transaction is returned unchanged — identical
// retries never create duplicate records.
func (p *Processor) CreateTransaction(ctx context.Context, in CreateInput) (Transaction, error) {
	if !in.Amount.IsPositive() {
		return Transaction{}, nexumerrors.InvalidInput("amount", "amount must be strictly positive")
	}
	if in.FromAccountID == "" && in.ToAccountID == "" {
		return Transaction{}, nexumerrors.InvalidInput("from/to", "at least one of from-account-id/to-account-id is required")
	}

	now := time.Now().UTC()
	idempotencyKey := in.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = deriveIdempotencyKey(in, now)
	}

	if existing, err := p.findByIdempotencyKey(ctx, idempotencyKey); err == nil {
		return existing, nil
	} else if !nexumerrors.HasCode(err, nexumerrors.ErrCodeNotFound) {
		return Transaction{}, err
	}

	txn := Transaction{
		ID:             uuid.NewString(),
		Type:           in.Type,
		FromAccountID:  in.FromAccountID,
		ToAccountID:    in.ToAccountID,
		Amount:         in.Amount.Amount.String(),
		Currency:       string(in.Amount.Currency),
		Description:    in.Description,
		Reference:      in.Reference,
		IdempotencyKey: idempotencyKey,
		Channel:        in.Channel,
		State:          StatePending,
		CreatedAt:      now,
		Metadata:       in.Metadata,
	}
	if txn.Reference == "" {
		txn.Reference = string(txn.Type) + "-" + txn.ID[:8]
	}

	if err := p.save(ctx, txn); err != nil {
		return Transaction{}, err
	}
	p.auditAndDispatch(ctx, audit.EventTransactionCreated, events.KindTransactionCreated, txn, "")
	return txn, nil
}

func deriveIdempotencyKey(in CreateInput, now time.Time) string {
	h := sha256.New()
	h.Write([]byte(string(in.Type)))
	h.Write([]byte(":"))
	h.Write([]byte(in.FromAccountID))
	h.Write([]byte(":"))
	h.Write([]byte(in.ToAccountID))
	h.Write([]byte(":"))
	h.Write([]byte(in.Amount.Amount.String()))
	h.Write([]byte(":"))
	h.Write([]byte(string(in.Amount.Currency)))
	h.Write([]byte(":"))
	h.Write([]byte(now.Format(time.RFC3339Nano)))
	sum := hex.EncodeToString(h.Sum(nil))
	return sum[:16]
}

func (p *Processor) findByIdempotencyKey(ctx context.Context, key string) (Transaction, error) {
	recs, err := p.store.Find(ctx, storage.TableTransactions, storage.Filter{"idempotency_key": key})
	if err != nil {
		return Transaction{}, nexumerrors.StorageUnavailable(err)
	}
	if len(recs) == 0 {
		return Transaction{}, nexumerrors.NotFound("transaction", key)
	}
	return transactionFromRecord(recs[0]), nil
}

// GetTransaction loads a transaction by id.
func (p *Processor) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	rec, err := p.store.Load(ctx, storage.TableTransactions, id)
	if err == storage.ErrNotFound {
		return Transaction{}, nexumerrors.NotFound("transaction", id)
	} else if err != nil {
		return Transaction{}, nexumerrors.StorageUnavailable(err)
	}
	return transactionFromRecord(rec), nil
}

// GetAccountTransactions returns every transaction with accountID on
// either leg.
func (p *Processor) GetAccountTransactions(ctx context.Context, accountID string) ([]Transaction, error) {
	recs, err := p.store.LoadAll(ctx, storage.TableTransactions)
	if err != nil {
		return nil, nexumerrors.StorageUnavailable(err)
	}
	var out []Transaction
	for _, rec := range recs {
		txn := transactionFromRecord(rec)
		if txn.FromAccountID == accountID || txn.ToAccountID == accountID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (p *Processor) save(ctx context.Context, t Transaction) error {
	record := map[string]interface{}{
		"id":                      t.ID,
		"type":                    string(t.Type),
		"from_account_id":         t.FromAccountID,
		"to_account_id":           t.ToAccountID,
		"amount":                  t.Amount,
		"currency":                t.Currency,
		"description":             t.Description,
		"reference":               t.Reference,
		"idempotency_key":         t.IdempotencyKey,
		"channel":                 string(t.Channel),
		"state":                   string(t.State),
		"journal_entry_id":        t.JournalEntryID,
		"reversal_transaction_id": t.ReversalTransactionID,
		"original_transaction_id": t.OriginalTransactionID,
		"created_at":              t.CreatedAt,
		"error_message":           t.ErrorMessage,
		"compliance_checked":      t.ComplianceChecked,
		"compliance_action":       t.ComplianceAction,
		"metadata":                t.Metadata,
	}
	if t.ProcessedAt != nil {
		record["processed_at"] = *t.ProcessedAt
	}
	if err := p.store.Save(ctx, storage.TableTransactions, t.ID, record); err != nil {
		return nexumerrors.StorageUnavailable(err)
	}
	return nil
}

func transactionFromRecord(rec map[string]interface{}) Transaction {
	t := Transaction{
		ID:                    asString(rec["id"]),
		Type:                  Type(asString(rec["type"])),
		FromAccountID:         asString(rec["from_account_id"]),
		ToAccountID:           asString(rec["to_account_id"]),
		Amount:                asString(rec["amount"]),
		Currency:              asString(rec["currency"]),
		Description:           asString(rec["description"]),
		Reference:             asString(rec["reference"]),
		IdempotencyKey:        asString(rec["idempotency_key"]),
		Channel:               Channel(asString(rec["channel"])),
		State:                 State(asString(rec["state"])),
		JournalEntryID:        asString(rec["journal_entry_id"]),
		ReversalTransactionID: asString(rec["reversal_transaction_id"]),
		OriginalTransactionID: asString(rec["original_transaction_id"]),
		ErrorMessage:          asString(rec["error_message"]),
		ComplianceAction:      asString(rec["compliance_action"]),
	}
	if b, ok := rec["compliance_checked"].(bool); ok {
		t.ComplianceChecked = b
	}
	if ts, ok := rec["created_at"].(time.Time); ok {
		t.CreatedAt = ts
	}
	if ts, ok := rec["processed_at"].(time.Time); ok {
		t.ProcessedAt = &ts
	}
	if m, ok := rec["metadata"].(map[string]interface{}); ok {
		t.Metadata = m
	}
	return t
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func (p *Processor) auditAndDispatch(ctx context.Context, eventType audit.EventType, kind events.Kind, t Transaction, note string) {
	if p.trail != nil {
		meta := map[string]interface{}{"type": string(t.Type), "state": string(t.State)}
		if note != "" {
			meta["note"] = note
		}
		if _, err := p.trail.Record(ctx, eventType, "transaction", t.ID, "system", meta); err != nil {
			p.log.WithError(err).Warn("failed to record audit event")
		}
	}
	if p.dispatcher != nil {
		p.dispatcher.Publish(ctx, events.DomainEvent{
			Kind:       kind,
			EntityType: "transaction",
			EntityID:   t.ID,
			Data: map[string]interface{}{
				"amount":          t.Amount,
				"currency":        t.Currency,
				"from_account_id": t.FromAccountID,
				"to_account_id":   t.ToAccountID,
				"transaction_type": string(t.Type),
				"channel":         string(t.Channel),
				"description":     t.Description,
			},
		})
	}
}
