package transaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexum-core/nexum/domain/account"
	"github.com/nexum-core/nexum/domain/audit"
	"github.com/nexum-core/nexum/domain/compliance"
	"github.com/nexum-core/nexum/domain/fraud"
	"github.com/nexum-core/nexum/domain/ledger"
	nexumerrors "github.com/nexum-core/nexum/infrastructure/errors"
	"github.com/nexum-core/nexum/pkg/money"
	"github.com/nexum-core/nexum/pkg/storage/memory"
	"github.com/nexum-core/nexum/system/events"
)

func newTestProcessor(t *testing.T) (*Processor, *ledger.Ledger, string, string) {
	t.Helper()
	store := memory.New()
	l := ledger.New(store, nil)
	mgr := account.NewLedgerManager(l)
	dispatcher := events.New(nil)
	trail, err := audit.New(context.Background(), store)
	require.NoError(t, err)

	sys := SystemAccounts{
		ExternalDeposits:    mustSystemAccount(t, l, "ext-dep"),
		ExternalWithdrawals: mustSystemAccount(t, l, "ext-wd"),
		ExternalPayments:    mustSystemAccount(t, l, "ext-pay"),
		ExternalTransfers:   mustSystemAccount(t, l, "ext-xfer"),
		FeeIncome:           mustSystemAccount(t, l, "fee-income"),
		InterestExpense:     mustSystemAccount(t, l, "interest-expense"),
		InterestIncome:      mustSystemAccount(t, l, "interest-income"),
		Adjustments:         mustSystemAccount(t, l, "adjustments"),
	}

	proc := New(store, l, mgr, compliance.AllowAllGate{}, fraud.MockScorer{}, dispatcher, trail, sys, nil)

	checking, err := l.CreateAccount(context.Background(), "cust-1", ledger.ProductChecking, money.USD)
	require.NoError(t, err)
	savings, err := l.CreateAccount(context.Background(), "cust-1", ledger.ProductSavings, money.USD)
	require.NoError(t, err)
	return proc, l, checking.ID, savings.ID
}

func mustSystemAccount(t *testing.T, l *ledger.Ledger, name string) string {
	t.Helper()
	acct, err := l.CreateAccount(context.Background(), "", ledger.ProductSystem, money.USD)
	require.NoError(t, err)
	return acct.ID
}

func amt(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.Parse(s, money.USD)
	require.NoError(t, err)
	return m
}

func TestDepositRoundTrip(t *testing.T) {
	proc, l, checking, _ := newTestProcessor(t)
	txn, err := proc.Deposit(context.Background(), checking, amt(t, "100.00"), "initial deposit", ChannelOnline)
	require.NoError(t, err)
	require.Equal(t, StateCompleted, txn.State)
	require.NotEmpty(t, txn.JournalEntryID)

	bal, err := l.BookBalance(context.Background(), checking)
	require.NoError(t, err)
	require.Equal(t, "100", bal.Amount.String())
}

func TestIdempotentDeposit(t *testing.T) {
	proc, _, checking, _ := newTestProcessor(t)
	in := CreateInput{Type: TypeDeposit, Amount: amt(t, "50.00"), Channel: ChannelOnline, ToAccountID: checking, IdempotencyKey: "fixed-key"}
	first, err := proc.CreateTransaction(context.Background(), in)
	require.NoError(t, err)
	second, err := proc.CreateTransaction(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestInsufficientFundsWithdrawalFails(t *testing.T) {
	proc, _, checking, _ := newTestProcessor(t)
	_, err := proc.Withdraw(context.Background(), checking, amt(t, "25.00"), "atm withdrawal", ChannelATM)
	require.Error(t, err)

	txns, err := proc.GetAccountTransactions(context.Background(), checking)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	require.Equal(t, StateFailed, txns[0].State)
}

func TestMixedCurrencyTransferRejected(t *testing.T) {
	proc, l, checking, _ := newTestProcessor(t)
	_, err := proc.Deposit(context.Background(), checking, amt(t, "100.00"), "seed", ChannelOnline)
	require.NoError(t, err)

	eurAccount, err := l.CreateAccount(context.Background(), "cust-2", ledger.ProductChecking, money.EUR)
	require.NoError(t, err)

	eurAmount, err := money.Parse("10.00", money.EUR)
	require.NoError(t, err)
	txn, err := proc.CreateTransaction(context.Background(), CreateInput{
		Type: TypeTransferInternal, Amount: eurAmount, Channel: ChannelOnline,
		FromAccountID: checking, ToAccountID: eurAccount.ID,
	})
	require.NoError(t, err)
	_, err = proc.ProcessTransaction(context.Background(), txn.ID)
	require.Error(t, err)
}

func TestReversal(t *testing.T) {
	proc, l, checking, _ := newTestProcessor(t)
	deposit, err := proc.Deposit(context.Background(), checking, amt(t, "200.00"), "seed", ChannelOnline)
	require.NoError(t, err)

	reversal, err := proc.ReverseTransaction(context.Background(), deposit.ID, "customer dispute", ChannelSystem)
	require.NoError(t, err)
	require.Equal(t, StateCompleted, reversal.State)

	original, err := proc.GetTransaction(context.Background(), deposit.ID)
	require.NoError(t, err)
	require.Equal(t, StateReversed, original.State)
	require.Equal(t, reversal.ID, original.ReversalTransactionID)

	bal, err := l.BookBalance(context.Background(), checking)
	require.NoError(t, err)
	require.True(t, bal.IsZero())
}

func TestReverseOfReverseForbidden(t *testing.T) {
	proc, _, checking, _ := newTestProcessor(t)
	deposit, err := proc.Deposit(context.Background(), checking, amt(t, "10.00"), "seed", ChannelOnline)
	require.NoError(t, err)
	_, err = proc.ReverseTransaction(context.Background(), deposit.ID, "dispute", ChannelSystem)
	require.NoError(t, err)

	_, err = proc.ReverseTransaction(context.Background(), deposit.ID, "dispute again", ChannelSystem)
	require.Error(t, err)
	require.True(t, nexumerrors.HasCode(err, nexumerrors.ErrCodeAlreadyReversed))
}

func TestFraudBlockFailsTransaction(t *testing.T) {
	store := memory.New()
	l := ledger.New(store, nil)
	mgr := account.NewLedgerManager(l)
	dispatcher := events.New(nil)
	trail, err := audit.New(context.Background(), store)
	require.NoError(t, err)
	sys := SystemAccounts{ExternalDeposits: mustSystemAccount(t, l, "ext-dep")}
	proc := New(store, l, mgr, compliance.AllowAllGate{}, fraud.MockScorer{}, dispatcher, trail, sys, nil)

	checking, err := l.CreateAccount(context.Background(), "cust-1", ledger.ProductChecking, money.USD)
	require.NoError(t, err)

	txn, err := proc.Deposit(context.Background(), checking.ID, amt(t, "60000.00"), "large deposit", ChannelOnline)
	require.Error(t, err)
	require.Equal(t, StateFailed, txn.State)
	require.True(t, nexumerrors.HasCode(err, nexumerrors.ErrCodeFraudBlock))
}

func TestTransferMovesFundsBetweenAccounts(t *testing.T) {
	proc, l, checking, savings := newTestProcessor(t)
	_, err := proc.Deposit(context.Background(), checking, amt(t, "100.00"), "seed", ChannelOnline)
	require.NoError(t, err)

	_, err = proc.Transfer(context.Background(), checking, savings, amt(t, "40.00"), "move to savings", ChannelOnline)
	require.NoError(t, err)

	fromBal, err := l.BookBalance(context.Background(), checking)
	require.NoError(t, err)
	require.Equal(t, "60", fromBal.Amount.String())

	toBal, err := l.BookBalance(context.Background(), savings)
	require.NoError(t, err)
	require.Equal(t, "40", toBal.Amount.String())
}
