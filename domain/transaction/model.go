// Package transaction implements the transaction state machine and the
// processor that drives every posting through compliance, fraud, account
// validation, and the ledger. Grounded on
// original_source/core_banking/transactions.py for the state machine and
// journal-posting-rule table, adapted to this core's Go error/storage/
// event conventions.
package transaction

import "time"

// Type is a closed set of transaction kinds.
type Type string

const (
	TypeDeposit          Type = "DEPOSIT"
	TypeWithdrawal       Type = "WITHDRAWAL"
	TypeTransferInternal Type = "TRANSFER_INTERNAL"
	TypeTransferExternal Type = "TRANSFER_EXTERNAL"
	TypePayment          Type = "PAYMENT"
	TypeFee              Type = "FEE"
	TypeInterestCredit   Type = "INTEREST_CREDIT"
	TypeInterestDebit    Type = "INTEREST_DEBIT"
	TypeAdjustment       Type = "ADJUSTMENT"
	TypeReversal         Type = "REVERSAL"
)

// reversible is the set of types reverse-transaction may act on. FEE,
// INTEREST_*, ADJUSTMENT, TRANSFER_EXTERNAL, and REVERSAL itself are
// excluded, matching original_source's
// _create_journal_entry_for_reversal, which only ever builds a reversal
// leg for DEPOSIT/WITHDRAWAL/TRANSFER_INTERNAL.
var reversible = map[Type]bool{
	TypeDeposit:          true,
	TypeWithdrawal:       true,
	TypeTransferInternal: true,
}

// Reversible reports whether t may be reversed.
func Reversible(t Type) bool { return reversible[t] }

// Channel names the origination surface of a transaction.
type Channel string

const (
	ChannelOnline Channel = "ONLINE"
	ChannelBranch Channel = "BRANCH"
	ChannelATM    Channel = "ATM"
	ChannelSystem Channel = "SYSTEM"
)

// State is the transaction's lifecycle state.
type State string

const (
	StatePending    State = "PENDING"
	StateProcessing State = "PROCESSING"
	StateCompleted  State = "COMPLETED"
	StateFailed     State = "FAILED"
	StateReversed   State = "REVERSED"
)

// Transaction is one banking operation moving through the processor.
type Transaction struct {
	ID                    string
	Type                  Type
	FromAccountID         string
	ToAccountID           string
	Amount                string // decimal string; parsed against Currency via money.Parse
	Currency              string
	Description           string
	Reference             string
	IdempotencyKey        string
	Channel               Channel
	State                 State
	JournalEntryID        string
	ReversalTransactionID string
	OriginalTransactionID string
	CreatedAt             time.Time
	ProcessedAt           *time.Time
	ErrorMessage          string
	ComplianceChecked     bool
	ComplianceAction      string
	Metadata              map[string]interface{}
}

// HasFrom/HasTo report whether the respective leg is set.
func (t Transaction) HasFrom() bool { return t.FromAccountID != "" }
func (t Transaction) HasTo() bool   { return t.ToAccountID != "" }
