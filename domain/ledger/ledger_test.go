package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nexum-core/nexum/domain/ledger"
	"github.com/nexum-core/nexum/pkg/money"
	"github.com/nexum-core/nexum/pkg/storage/memory"
)

func TestCreateAndPostBalancedEntry(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	l := ledger.New(store, nil)

	acctA, err := l.CreateAccount(ctx, "cust-1", ledger.ProductChecking, money.USD)
	require.NoError(t, err)
	sysDeposits, err := l.CreateAccount(ctx, "system", ledger.ProductSystem, money.USD)
	require.NoError(t, err)

	amount := money.New(decimal.NewFromFloat(100), money.USD)
	entry, err := l.CreateJournalEntry(ctx, "REF1", "deposit", []ledger.JournalEntryLine{
		{AccountID: acctA.ID, Debit: amount, Credit: money.Zero(money.USD)},
		{AccountID: sysDeposits.ID, Debit: money.Zero(money.USD), Credit: amount},
	})
	require.NoError(t, err)
	require.False(t, entry.IsPosted())

	posted, err := l.PostJournalEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.True(t, posted.IsPosted())

	balance, err := l.BookBalance(ctx, acctA.ID)
	require.NoError(t, err)
	eq, err := balance.Cmp(amount)
	require.NoError(t, err)
	require.Zero(t, eq)
}

func TestCreateJournalEntryRejectsUnbalanced(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	l := ledger.New(store, nil)

	acctA, err := l.CreateAccount(ctx, "cust-1", ledger.ProductChecking, money.USD)
	require.NoError(t, err)
	acctB, err := l.CreateAccount(ctx, "system", ledger.ProductSystem, money.USD)
	require.NoError(t, err)

	_, err = l.CreateJournalEntry(ctx, "REF2", "bad", []ledger.JournalEntryLine{
		{AccountID: acctA.ID, Debit: money.New(decimal.NewFromInt(100), money.USD), Credit: money.Zero(money.USD)},
		{AccountID: acctB.ID, Debit: money.Zero(money.USD), Credit: money.New(decimal.NewFromInt(90), money.USD)},
	})
	require.Error(t, err)
}

func TestPostJournalEntryTwiceFails(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	l := ledger.New(store, nil)

	acctA, _ := l.CreateAccount(ctx, "cust-1", ledger.ProductChecking, money.USD)
	acctB, _ := l.CreateAccount(ctx, "system", ledger.ProductSystem, money.USD)
	amount := money.New(decimal.NewFromInt(10), money.USD)
	entry, err := l.CreateJournalEntry(ctx, "REF3", "fee", []ledger.JournalEntryLine{
		{AccountID: acctB.ID, Debit: amount, Credit: money.Zero(money.USD)},
		{AccountID: acctA.ID, Debit: money.Zero(money.USD), Credit: amount},
	})
	require.NoError(t, err)

	_, err = l.PostJournalEntry(ctx, entry.ID)
	require.NoError(t, err)
	_, err = l.PostJournalEntry(ctx, entry.ID)
	require.Error(t, err)
}
