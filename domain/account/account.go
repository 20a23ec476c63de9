// Package account defines the narrow collaborator interface the
// transaction processor validates debit/credit legs against. Full
// account CRUD (opening products, closing accounts, limit changes) is
// out of this core's scope; only the slice the processor actually calls
// is specified, per SPEC_FULL.md's supplement of original_source's
// account-manager surface.
package account

import (
	"context"

	nexumerrors "github.com/nexum-core/nexum/infrastructure/errors"
	"github.com/nexum-core/nexum/domain/ledger"
	"github.com/nexum-core/nexum/pkg/money"
)

// Manager is the slice of account behavior the transaction processor
// depends on to validate a debit or credit leg before posting.
type Manager interface {
	GetAccount(ctx context.Context, id string) (ledger.Account, error)
	BookBalance(ctx context.Context, accountID string) (money.Money, error)
	AvailableBalance(ctx context.Context, accountID string) (money.Money, error)
	CanDebit(ctx context.Context, accountID string, amount money.Money) (bool, error)
	CanCredit(ctx context.Context, accountID string) (bool, error)
}

// LedgerManager implements Manager directly against a ledger.Ledger —
// the reference implementation used in tests and by the default wiring
// in cmd/nexum, since this core carries no separate account-product
// service of its own.
type LedgerManager struct {
	ledger *ledger.Ledger
}

// NewLedgerManager wraps l as a Manager.
func NewLedgerManager(l *ledger.Ledger) *LedgerManager {
	return &LedgerManager{ledger: l}
}

func (m *LedgerManager) GetAccount(ctx context.Context, id string) (ledger.Account, error) {
	return m.ledger.GetAccount(ctx, id)
}

func (m *LedgerManager) BookBalance(ctx context.Context, accountID string) (money.Money, error) {
	return m.ledger.BookBalance(ctx, accountID)
}

func (m *LedgerManager) AvailableBalance(ctx context.Context, accountID string) (money.Money, error) {
	return m.ledger.AvailableBalance(ctx, accountID)
}

// CanDebit reports whether accountID may be debited amount: the account
// must be active and, unless it is a loan account, the available balance
// must cover the amount. A loan account is approved without any balance
// check; no cap on the debited amount is applied here or by the processor.
func (m *LedgerManager) CanDebit(ctx context.Context, accountID string, amount money.Money) (bool, error) {
	acct, err := m.ledger.GetAccount(ctx, accountID)
	if err != nil {
		return false, err
	}
	if acct.State != ledger.AccountActive {
		return false, nexumerrors.InvalidState("account", string(acct.State), string(ledger.AccountActive))
	}
	if acct.ProductType == ledger.ProductLoan {
		return true, nil
	}
	available, err := m.ledger.AvailableBalance(ctx, accountID)
	if err != nil {
		return false, err
	}
	ok, err := available.GreaterThanOrEqual(amount)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// CanCredit reports whether accountID may receive a credit: it must
// simply be active. There is no balance ceiling on a credit leg.
func (m *LedgerManager) CanCredit(ctx context.Context, accountID string) (bool, error) {
	acct, err := m.ledger.GetAccount(ctx, accountID)
	if err != nil {
		return false, err
	}
	return acct.State == ledger.AccountActive, nil
}
