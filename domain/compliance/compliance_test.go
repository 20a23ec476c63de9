package compliance

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nexum-core/nexum/pkg/money"
	"github.com/nexum-core/nexum/pkg/storage/memory"
)

func mustMoney(t *testing.T, amount string) money.Money {
	t.Helper()
	d, err := decimal.NewFromString(amount)
	require.NoError(t, err)
	return money.New(d, money.USD)
}

func TestStoredGateThresholds(t *testing.T) {
	store := memory.New()
	gate := NewStoredGate(store, mustMoney(t, "1000"), mustMoney(t, "10000"), nil)

	check, err := gate.CheckTransaction(context.Background(), "cust-1", "acct-1", mustMoney(t, "100"), "DEPOSIT", "txn-1")
	require.NoError(t, err)
	require.Equal(t, ActionAllow, check.Action)

	check, err = gate.CheckTransaction(context.Background(), "cust-1", "acct-1", mustMoney(t, "5000"), "DEPOSIT", "txn-2")
	require.NoError(t, err)
	require.Equal(t, ActionFlag, check.Action)

	check, err = gate.CheckTransaction(context.Background(), "cust-1", "acct-1", mustMoney(t, "20000"), "DEPOSIT", "txn-3")
	require.NoError(t, err)
	require.Equal(t, ActionBlock, check.Action)
}

func TestCreateAlertPersists(t *testing.T) {
	store := memory.New()
	gate := NewStoredGate(store, mustMoney(t, "1000"), mustMoney(t, "10000"), nil)

	alert, err := gate.CreateAlert(context.Background(), "cust-1", "txn-1", "large transfer", "HIGH")
	require.NoError(t, err)
	require.NotEmpty(t, alert.ID)

	rec, err := store.Load(context.Background(), "notifications", alert.ID)
	require.NoError(t, err)
	require.Equal(t, "cust-1", rec["customer_id"])
}
