package account

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nexum-core/nexum/domain/ledger"
	"github.com/nexum-core/nexum/pkg/money"
	"github.com/nexum-core/nexum/pkg/storage/memory"
)

func TestCanDebitRequiresAvailableBalance(t *testing.T) {
	store := memory.New()
	l := ledger.New(store, nil)
	mgr := NewLedgerManager(l)
	ctx := context.Background()

	checking, err := l.CreateAccount(ctx, "cust-1", ledger.ProductChecking, money.USD)
	require.NoError(t, err)
	external, err := l.CreateAccount(ctx, "", ledger.ProductSystem, money.USD)
	require.NoError(t, err)

	hundred := money.New(decimal.NewFromInt(100), money.USD)
	entry, err := l.CreateJournalEntry(ctx, "seed", "seed deposit", []ledger.JournalEntryLine{
		{AccountID: checking.ID, Debit: hundred},
		{AccountID: external.ID, Credit: hundred},
	})
	require.NoError(t, err)
	_, err = l.PostJournalEntry(ctx, entry.ID)
	require.NoError(t, err)

	ok, err := mgr.CanDebit(ctx, checking.ID, money.New(decimal.NewFromInt(50), money.USD))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = mgr.CanDebit(ctx, checking.ID, money.New(decimal.NewFromInt(500), money.USD))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCanDebitLoanAccountBypassesBalance(t *testing.T) {
	store := memory.New()
	l := ledger.New(store, nil)
	mgr := NewLedgerManager(l)
	ctx := context.Background()

	loan, err := l.CreateAccount(ctx, "cust-1", ledger.ProductLoan, money.USD)
	require.NoError(t, err)

	ok, err := mgr.CanDebit(ctx, loan.ID, money.New(decimal.NewFromInt(100000), money.USD))
	require.NoError(t, err)
	require.True(t, ok)
}
