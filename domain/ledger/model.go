// Package ledger implements the double-entry general ledger: accounts,
// journal entries, and the balance derivation every account balance is
// read through.
package ledger

import (
	"time"

	"github.com/nexum-core/nexum/pkg/money"
)

// ProductType classifies what an account represents.
type ProductType string

const (
	ProductChecking ProductType = "checking"
	ProductSavings  ProductType = "savings"
	ProductLoan     ProductType = "loan"
	ProductSystem   ProductType = "system"
)

// NormalSide is the side of the ledger an account's balance grows on.
type NormalSide string

const (
	NormalDebit  NormalSide = "debit"
	NormalCredit NormalSide = "credit"
)

// NormalSideFor returns the accounting normal side for a product type:
// checking/savings/loan are asset-like (debit-normal) from the bank's own
// book-of-record perspective; system bookkeeping accounts that absorb the
// external leg of deposits/withdrawals/fees/interest are credit-normal,
// mirroring a liability/income account.
func NormalSideFor(p ProductType) NormalSide {
	switch p {
	case ProductSystem:
		return NormalCredit
	default:
		return NormalDebit
	}
}

// AccountState is the lifecycle state of a ledger account.
type AccountState string

const (
	AccountActive AccountState = "active"
	AccountClosed AccountState = "closed"
)

// Account is a ledger-addressable account. Its balance is never stored —
// it is always derived from posted journal lines.
type Account struct {
	ID          string
	CustomerID  string
	ProductType ProductType
	Currency    money.Currency
	State       AccountState
	NormalSide  NormalSide
	CreatedAt   time.Time
}

// JournalEntryLine is one leg of a journal entry. Exactly one of Debit/
// Credit is non-zero; both carry the entry's currency.
type JournalEntryLine struct {
	AccountID   string
	Description string
	Debit       money.Money
	Credit      money.Money
}

// JournalEntry is an atomic, currency-balanced set of debit/credit lines.
// Once PostedAt is non-nil the entry is immutable.
type JournalEntry struct {
	ID          string
	Reference   string
	Description string
	Lines       []JournalEntryLine
	CreatedAt   time.Time
	PostedAt    *time.Time
}

// IsPosted reports whether the entry has been posted.
func (e JournalEntry) IsPosted() bool {
	return e.PostedAt != nil
}
