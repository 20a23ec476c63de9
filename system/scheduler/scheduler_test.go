package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexum-core/nexum/domain/account"
	"github.com/nexum-core/nexum/domain/audit"
	"github.com/nexum-core/nexum/domain/compliance"
	"github.com/nexum-core/nexum/domain/fraud"
	"github.com/nexum-core/nexum/domain/ledger"
	"github.com/nexum-core/nexum/domain/transaction"
	"github.com/nexum-core/nexum/pkg/money"
	"github.com/nexum-core/nexum/pkg/storage/memory"
	"github.com/nexum-core/nexum/system/events"
)

func newTestScheduler(t *testing.T) (*Scheduler, *ledger.Ledger, string) {
	t.Helper()
	store := memory.New()
	l := ledger.New(store, nil)
	mgr := account.NewLedgerManager(l)
	dispatcher := events.New(nil)
	trail, err := audit.New(context.Background(), store)
	require.NoError(t, err)

	sys := transaction.SystemAccounts{
		ExternalDeposits: mustSystemAccount(t, l),
		InterestExpense:  mustSystemAccount(t, l),
		InterestIncome:   mustSystemAccount(t, l),
	}
	proc := transaction.New(store, l, mgr, compliance.AllowAllGate{}, fraud.MockScorer{}, dispatcher, trail, sys, nil)

	savings, err := l.CreateAccount(context.Background(), "cust-1", ledger.ProductSavings, money.USD)
	require.NoError(t, err)
	seed, err := l.CreateAccount(context.Background(), "", ledger.ProductSystem, money.USD)
	require.NoError(t, err)
	_, err = proc.Deposit(context.Background(), savings.ID, mustAmount(t, "10000.00"), "seed", transaction.ChannelOnline)
	require.NoError(t, err)
	_ = seed

	sched := New(l, proc, trail, DefaultRates(), nil)
	return sched, l, savings.ID
}

func mustSystemAccount(t *testing.T, l *ledger.Ledger) string {
	t.Helper()
	acct, err := l.CreateAccount(context.Background(), "", ledger.ProductSystem, money.USD)
	require.NoError(t, err)
	return acct.ID
}

func mustAmount(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.Parse(s, money.USD)
	require.NoError(t, err)
	return m
}

func TestAccrueSavingsCreditsInterest(t *testing.T) {
	sched, l, savings := newTestScheduler(t)
	before, err := l.BookBalance(context.Background(), savings)
	require.NoError(t, err)

	sched.runInterestAccrual()

	after, err := l.BookBalance(context.Background(), savings)
	require.NoError(t, err)
	require.True(t, after.Amount.GreaterThan(before.Amount))
}

func TestAccrueSkipsZeroBalanceAccounts(t *testing.T) {
	sched, l, _ := newTestScheduler(t)
	empty, err := l.CreateAccount(context.Background(), "cust-2", ledger.ProductSavings, money.USD)
	require.NoError(t, err)

	sched.runInterestAccrual()

	bal, err := l.BookBalance(context.Background(), empty.ID)
	require.NoError(t, err)
	require.True(t, bal.IsZero())
}

func TestRunChainVerifyPasses(t *testing.T) {
	sched, _, _ := newTestScheduler(t)
	sched.runChainVerify()
}
