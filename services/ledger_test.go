package services_test

import (
	"context"
	"errors"
	"testing"

	"bgmi-arena/models"
	"bgmi-arena/utils"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWallet(t *testing.T) {
	env := newTestEnv(t)
	c := env.contestant(t, 75)

	w, err := env.ledger.Wallet(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(75), w.WalletBalance)
	assert.Equal(t, c.ID, w.ContestantID)

	_, err = env.ledger.Wallet(context.Background(), "missing")
	assert.True(t, errors.Is(err, utils.ErrNotFound))
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	c := env.contestant(t, 500)
	env.deposit(t, c.ID, 100)
	env.withdraw(t, c.ID, 60)

	txs, err := env.ledger.History(context.Background(), c.ID, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, c.ID, tx.ContestantID)
	}

	txs, err = env.ledger.History(context.Background(), c.ID, 1)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	_, err = env.ledger.History(context.Background(), "", 0)
	assert.True(t, errors.Is(err, utils.ErrValidation))
}

func TestReconcileTracksEveryMovement(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.contestant(t, 0)
	tr := env.tournament(t, 10, 30)

	dep := env.deposit(t, c.ID, 300)
	_, err := env.approvals.DecideDeposit(ctx, dep.ID, models.StatusApproved, "")
	require.NoError(t, err)
	rejectedDep := env.deposit(t, c.ID, 900)
	_, err = env.approvals.DecideDeposit(ctx, rejectedDep.ID, models.StatusRejected, "")
	require.NoError(t, err)

	_, err = env.joins.JoinWithWallet(ctx, walletJoin(c.ID, tr.ID))
	require.NoError(t, err)

	kept := env.withdraw(t, c.ID, 100)
	_, err = env.approvals.DecideWithdrawal(ctx, kept.ID, models.StatusApproved, "")
	require.NoError(t, err)
	returned := env.withdraw(t, c.ID, 50)
	_, err = env.approvals.DecideWithdrawal(ctx, returned.ID, models.StatusRejected, "")
	require.NoError(t, err)
	env.withdraw(t, c.ID, 70)

	rec, err := env.ledger.Reconcile(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), rec.StoredBalance)
	assert.Equal(t, int64(100), rec.ProjectedBalance)
	assert.Equal(t, int64(70), rec.ProjectedPending)
	assert.True(t, rec.Balanced, "%+v", rec)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LedgerMovements.WithLabelValues("withdraw")))
	assert.Equal(t, 3.0, testutil.ToFloat64(env.metrics.LedgerMovements.WithLabelValues("withdraw_hold")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LedgerMovements.WithLabelValues("withdraw_release")))
	assert.Equal(t, 300.0, testutil.ToFloat64(env.metrics.LedgerAmount.WithLabelValues("deposit")))
}

func TestReconcileReportsDrift(t *testing.T) {
	env := newTestEnv(t)
	c := env.contestant(t, 0)
	require.NoError(t, env.db.Model(&models.Contestant{}).Where("id = ?", c.ID).Update("wallet_balance", 42).Error)

	rec, err := env.ledger.Reconcile(context.Background(), c.ID)
	require.NoError(t, err)
	assert.False(t, rec.Balanced)
	assert.Equal(t, int64(42), rec.Drift)
}
