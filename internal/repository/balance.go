package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const balanceKeyPrefix = "balance:"

// BalanceRepository is the write-through store for point balances. The ledger
// stays authoritative; this only makes balances survive restarts.
type BalanceRepository interface {
	SaveBalance(ctx context.Context, userID string, balance int64) error
	GetAll(ctx context.Context) (map[string]int64, error)
}

type dbBalance struct {
	client *redis.Client
}

func NewBalanceRepository(client *redis.Client) BalanceRepository {
	return &dbBalance{
		client: client,
	}
}

func (that *dbBalance) SaveBalance(ctx context.Context, userID string, balance int64) error {
	balanceKey := balanceKeyPrefix + userID

	if err := that.client.Set(ctx, balanceKey, balance, 0).Err(); err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}

	return nil
}

// GetAll - loads every persisted balance, used once at startup.
func (that *dbBalance) GetAll(ctx context.Context) (map[string]int64, error) {
	balances := make(map[string]int64)

	iter := that.client.Scan(ctx, 0, balanceKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		value, err := that.client.Get(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to get balance %s: %w", key, err)
		}

		balance, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance %s: %w", key, err)
		}

		balances[strings.TrimPrefix(key, balanceKeyPrefix)] = balance
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan balances: %w", err)
	}

	return balances, nil
}
