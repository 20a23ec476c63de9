package transaction

import (
	"context"
	"time"

	"github.com/nexum-core/nexum/domain/account"
	"github.com/nexum-core/nexum/domain/audit"
	"github.com/nexum-core/nexum/domain/fraud"
	"github.com/nexum-core/nexum/domain/ledger"
	nexumerrors "github.com/nexum-core/nexum/infrastructure/errors"
	"github.com/nexum-core/nexum/pkg/metrics"
	"github.com/nexum-core/nexum/pkg/money"
	"github.com/nexum-core/nexum/pkg/storage"
	"github.com/nexum-core/nexum/system/events"
)

// skipGates reports whether compliance/fraud screening is bypassed for
// txn, per spec §4.9 step 3/4: SYSTEM channel and REVERSAL type are
// implicitly allowed.
func skipGates(t Transaction) bool {
	return t.Channel == ChannelSystem || t.Type == TypeReversal
}

// ProcessTransaction runs the full pipeline inside a single storage
// atomic scope: compliance gate, fraud scorer, account validation,
// journal posting. Any failure rolls back every write made inside the
// scope; the transaction is then separately marked FAILED outside it.
func (p *Processor) ProcessTransaction(ctx context.Context, id string) (Transaction, error) {
	txn, err := p.GetTransaction(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if txn.State != StatePending {
		return Transaction{}, nexumerrors.InvalidState("transaction", string(txn.State), string(StatePending))
	}

	amount, err := money.Parse(txn.Amount, money.Currency(txn.Currency))
	if err != nil {
		return Transaction{}, err
	}

	start := time.Now()
	var failureMessage string
	txErr := p.store.Atomic(ctx, func(ctx context.Context, scope storage.Store) error {
		scoped := *p
		scoped.store = scope
		scoped.ledger = ledger.New(scope, nil)
		scoped.accounts = account.NewLedgerManager(scoped.ledger)

		txn.State = StateProcessing
		if err := scoped.save(ctx, txn); err != nil {
			return err
		}

		if !skipGates(txn) {
			check, err := scoped.compliance.CheckTransaction(ctx, "", txn.FromAccountID, amount, string(txn.Type), txn.ID)
			if err != nil {
				return err
			}
			txn.ComplianceChecked = true
			txn.ComplianceAction = string(check.Action)
			metrics.RecordComplianceAction(string(check.Action))
			if check.Action == "BLOCK" {
				failureMessage = "Blocked by compliance rules"
				return nexumerrors.ComplianceBlock(check.Violations)
			}

			score, err := scoped.fraud.Score(ctx, fraud.Request{
				TransactionID: txn.ID, Amount: amount, TransactionType: string(txn.Type),
			})
			if err != nil {
				return err
			}
			if txn.Metadata == nil {
				txn.Metadata = map[string]interface{}{}
			}
			txn.Metadata["fraud_score"] = score.Value
			txn.Metadata["fraud_decision"] = string(score.Decision)
			txn.Metadata["fraud_risk_level"] = string(score.RiskLevel)
			txn.Metadata["fraud_reasons"] = score.Reasons
			txn.Metadata["fraud_latency_ms"] = score.LatencyMs
			metrics.RecordFraudDecision(string(score.Decision))
			if score.Decision == fraud.DecisionBlock {
				failureMessage = "Blocked by fraud detection"
				return nexumerrors.FraudBlock(score.Reasons)
			}
			if score.Decision == fraud.DecisionReview {
				txn.Metadata["needs_review"] = true
			}
		}

		if err := scoped.validateAccounts(ctx, txn, amount); err != nil {
			return err
		}

		lines, err := scoped.journalLines(ctx, txn, amount)
		if err != nil {
			return err
		}
		entry, err := scoped.ledger.CreateJournalEntry(ctx, txn.Reference, txn.Description, lines)
		if err != nil {
			return err
		}
		if _, err := scoped.ledger.PostJournalEntry(ctx, entry.ID); err != nil {
			return err
		}

		now := time.Now().UTC()
		txn.JournalEntryID = entry.ID
		txn.State = StateCompleted
		txn.ProcessedAt = &now
		return scoped.save(ctx, txn)
	})

	if txErr != nil {
		now := time.Now().UTC()
		txn.State = StateFailed
		txn.ProcessedAt = &now
		if failureMessage != "" {
			txn.ErrorMessage = failureMessage
		} else if se := nexumerrors.GetServiceError(txErr); se != nil {
			txn.ErrorMessage = se.Message
		} else {
			txn.ErrorMessage = txErr.Error()
		}
		if err := p.save(ctx, txn); err != nil {
			return Transaction{}, err
		}
		metrics.RecordTransaction(string(txn.Type), string(txn.State), time.Since(start).Seconds())
		p.auditAndDispatch(ctx, audit.EventTransactionFailed, events.KindTransactionFailed, txn, txn.ErrorMessage)
		return txn, txErr
	}

	metrics.RecordTransaction(string(txn.Type), string(txn.State), time.Since(start).Seconds())
	p.auditAndDispatch(ctx, audit.EventTransactionPosted, events.KindTransactionPosted, txn, "")
	return txn, nil
}

// validateAccounts enforces that the from leg is debitable and the to
// leg is creditable, and that both legs carry the transaction's own
// currency — per spec §4.9 step 5, a transfer between accounts in
// different currencies is rejected rather than silently converted.
func (p *Processor) validateAccounts(ctx context.Context, txn Transaction, amount money.Money) error {
	if txn.FromAccountID != "" {
		acct, err := p.accounts.GetAccount(ctx, txn.FromAccountID)
		if err != nil {
			return err
		}
		if acct.Currency != amount.Currency {
			return nexumerrors.CurrencyMismatch(string(amount.Currency), string(acct.Currency))
		}
		ok, err := p.accounts.CanDebit(ctx, txn.FromAccountID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return nexumerrors.InvalidState("account", "insufficient", "Insufficient funds")
		}
	}
	if txn.ToAccountID != "" {
		acct, err := p.accounts.GetAccount(ctx, txn.ToAccountID)
		if err != nil {
			return err
		}
		if acct.Currency != amount.Currency {
			return nexumerrors.CurrencyMismatch(string(amount.Currency), string(acct.Currency))
		}
		ok, err := p.accounts.CanCredit(ctx, txn.ToAccountID)
		if err != nil {
			return err
		}
		if !ok {
			return nexumerrors.InvalidState("account", "not creditable", "active")
		}
	}
	return nil
}

// journalLines builds the debit/credit legs for txn per spec §4.9's
// posting-rules table.
func (p *Processor) journalLines(ctx context.Context, txn Transaction, amount money.Money) ([]ledger.JournalEntryLine, error) {
	zero := money.Zero(amount.Currency)
	dr := func(account string) ledger.JournalEntryLine {
		return ledger.JournalEntryLine{AccountID: account, Debit: amount, Credit: zero, Description: txn.Description}
	}
	cr := func(account string) ledger.JournalEntryLine {
		return ledger.JournalEntryLine{AccountID: account, Debit: zero, Credit: amount, Description: txn.Description}
	}

	switch txn.Type {
	case TypeDeposit:
		return []ledger.JournalEntryLine{dr(txn.ToAccountID), cr(p.system.ExternalDeposits)}, nil
	case TypeWithdrawal:
		return []ledger.JournalEntryLine{dr(p.system.ExternalWithdrawals), cr(txn.FromAccountID)}, nil
	case TypeTransferInternal:
		return []ledger.JournalEntryLine{dr(txn.ToAccountID), cr(txn.FromAccountID)}, nil
	case TypeTransferExternal:
		if txn.ToAccountID != "" {
			return []ledger.JournalEntryLine{dr(txn.ToAccountID), cr(p.system.ExternalTransfers)}, nil
		}
		return []ledger.JournalEntryLine{dr(p.system.ExternalTransfers), cr(txn.FromAccountID)}, nil
	case TypePayment:
		return []ledger.JournalEntryLine{dr(p.system.ExternalPayments), cr(txn.FromAccountID)}, nil
	case TypeFee:
		return []ledger.JournalEntryLine{dr(p.system.FeeIncome), cr(txn.FromAccountID)}, nil
	case TypeInterestCredit:
		return []ledger.JournalEntryLine{dr(txn.ToAccountID), cr(p.system.InterestExpense)}, nil
	case TypeInterestDebit:
		return []ledger.JournalEntryLine{dr(p.system.InterestIncome), cr(txn.FromAccountID)}, nil
	case TypeAdjustment:
		if txn.ToAccountID != "" {
			return []ledger.JournalEntryLine{dr(txn.ToAccountID), cr(p.system.Adjustments)}, nil
		}
		return []ledger.JournalEntryLine{dr(p.system.Adjustments), cr(txn.FromAccountID)}, nil
	case TypeReversal:
		return p.reversalLines(ctx, txn, amount)
	default:
		return nil, nexumerrors.InvalidInput("type", "unknown transaction type")
	}
}

// reversalLines swaps the Dr/Cr sides of the original transaction's
// posting rule, per spec §4.9's reversal row.
func (p *Processor) reversalLines(ctx context.Context, txn Transaction, amount money.Money) ([]ledger.JournalEntryLine, error) {
	original, err := p.GetTransaction(ctx, txn.OriginalTransactionID)
	if err != nil {
		return nil, err
	}
	zero := money.Zero(amount.Currency)
	dr := func(account string) ledger.JournalEntryLine {
		return ledger.JournalEntryLine{AccountID: account, Debit: amount, Credit: zero, Description: txn.Description}
	}
	cr := func(account string) ledger.JournalEntryLine {
		return ledger.JournalEntryLine{AccountID: account, Debit: zero, Credit: amount, Description: txn.Description}
	}
	switch original.Type {
	case TypeDeposit:
		return []ledger.JournalEntryLine{dr(p.system.ExternalDeposits), cr(original.ToAccountID)}, nil
	case TypeWithdrawal:
		return []ledger.JournalEntryLine{dr(original.FromAccountID), cr(p.system.ExternalWithdrawals)}, nil
	case TypeTransferInternal:
		return []ledger.JournalEntryLine{dr(original.FromAccountID), cr(original.ToAccountID)}, nil
	default:
		return nil, nexumerrors.UnsupportedReversal(string(original.Type))
	}
}

// ReverseTransaction creates and processes a REVERSAL of originalID,
// skipping compliance and fraud per spec §4.9. On success the original
// is transitioned to REVERSED and linked to the reversal.
func (p *Processor) ReverseTransaction(ctx context.Context, originalID, reason string, channel Channel) (Transaction, error) {
	original, err := p.GetTransaction(ctx, originalID)
	if err != nil {
		return Transaction{}, err
	}
	if original.ReversalTransactionID != "" {
		return Transaction{}, nexumerrors.AlreadyReversed(originalID)
	}
	if original.State != StateCompleted {
		return Transaction{}, nexumerrors.InvalidState("transaction", string(original.State), string(StateCompleted))
	}
	if !Reversible(original.Type) {
		return Transaction{}, nexumerrors.UnsupportedReversal(string(original.Type))
	}
	if channel == "" {
		channel = ChannelSystem
	}

	amount, err := money.Parse(original.Amount, money.Currency(original.Currency))
	if err != nil {
		return Transaction{}, err
	}

	reversal, err := p.CreateTransaction(ctx, CreateInput{
		Type:          TypeReversal,
		Amount:        amount,
		Description:   "Reversal: " + reason,
		Channel:       channel,
		FromAccountID: original.ToAccountID,
		ToAccountID:   original.FromAccountID,
		Metadata:      map[string]interface{}{"original_transaction_id": originalID, "reason": reason},
	})
	if err != nil {
		return Transaction{}, err
	}
	reversal.OriginalTransactionID = originalID
	if err := p.save(ctx, reversal); err != nil {
		return Transaction{}, err
	}

	reversal, err = p.ProcessTransaction(ctx, reversal.ID)
	if err != nil {
		return Transaction{}, err
	}

	original.State = StateReversed
	original.ReversalTransactionID = reversal.ID
	if err := p.save(ctx, original); err != nil {
		return Transaction{}, err
	}
	p.auditAndDispatch(ctx, audit.EventTransactionReversed, events.KindTransactionReversed, original, reason)
	return reversal, nil
}

// Deposit, Withdraw, and Transfer are convenience wrappers around
// create+process for the three most common operations.

func (p *Processor) Deposit(ctx context.Context, toAccountID string, amount money.Money, description string, channel Channel) (Transaction, error) {
	txn, err := p.CreateTransaction(ctx, CreateInput{Type: TypeDeposit, Amount: amount, Description: description, Channel: channel, ToAccountID: toAccountID})
	if err != nil {
		return Transaction{}, err
	}
	return p.ProcessTransaction(ctx, txn.ID)
}

func (p *Processor) Withdraw(ctx context.Context, fromAccountID string, amount money.Money, description string, channel Channel) (Transaction, error) {
	txn, err := p.CreateTransaction(ctx, CreateInput{Type: TypeWithdrawal, Amount: amount, Description: description, Channel: channel, FromAccountID: fromAccountID})
	if err != nil {
		return Transaction{}, err
	}
	return p.ProcessTransaction(ctx, txn.ID)
}

func (p *Processor) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount money.Money, description string, channel Channel) (Transaction, error) {
	txn, err := p.CreateTransaction(ctx, CreateInput{Type: TypeTransferInternal, Amount: amount, Description: description, Channel: channel, FromAccountID: fromAccountID, ToAccountID: toAccountID})
	if err != nil {
		return Transaction{}, err
	}
	return p.ProcessTransaction(ctx, txn.ID)
}
