package repository

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/playpoints/xo-backend/testing/suite"
)

func TestBalanceRepository_SaveBalance(t *testing.T) {
	ctx, st := suite.New(t)

	balanceRepo := NewBalanceRepository(st.Storage)

	// When: a balance is written twice
	require.NoError(t, balanceRepo.SaveBalance(ctx, "alice", 100))
	require.NoError(t, balanceRepo.SaveBalance(ctx, "alice", 130))

	// Then: the last write wins
	balances, err := balanceRepo.GetAll(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"alice": 130}, balances)
}

func TestBalanceRepository_GetAll(t *testing.T) {
	t.Run("loads every persisted balance", func(t *testing.T) {
		ctx, st := suite.New(t)

		balanceRepo := NewBalanceRepository(st.Storage)

		require.NoError(t, balanceRepo.SaveBalance(ctx, "alice", 130))
		require.NoError(t, balanceRepo.SaveBalance(ctx, "bob", 70))

		// unrelated keys must not leak into the result
		require.NoError(t, st.Storage.Set(ctx, "match:m1", "{}", 0).Err())

		balances, err := balanceRepo.GetAll(ctx)

		require.NoError(t, err)
		require.Equal(t, map[string]int64{"alice": 130, "bob": 70}, balances)
	})

	t.Run("empty storage yields an empty map", func(t *testing.T) {
		ctx, st := suite.New(t)

		balanceRepo := NewBalanceRepository(st.Storage)

		balances, err := balanceRepo.GetAll(ctx)

		require.NoError(t, err)
		require.Empty(t, balances)
	})
}
