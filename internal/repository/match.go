package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/playpoints/xo-backend/internal/apperror"
	"github.com/playpoints/xo-backend/internal/entity"
)

// MatchRepository mirrors match snapshots to redis so results stay visible
// across restarts. The registry remains the authority for live matches.
type MatchRepository interface {
	Save(ctx context.Context, state *entity.MatchState) error
	GetByID(ctx context.Context, id string) (*entity.MatchState, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbMatch struct {
	client *redis.Client
}

func NewMatchRepository(client *redis.Client) MatchRepository {
	return &dbMatch{
		client: client,
	}
}

func (that *dbMatch) Save(ctx context.Context, state *entity.MatchState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	matchKey := "match:" + state.ID
	if err = that.client.Set(ctx, matchKey, stateJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set match: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByID(ctx context.Context, id string) (*entity.MatchState, error) {
	matchKey := "match:" + id

	response, err := that.client.Get(ctx, matchKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrMatchNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match by ID: %w", err)
	}

	var state entity.MatchState
	if err = json.Unmarshal([]byte(response), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &state, nil
}

func (that *dbMatch) DeleteByID(ctx context.Context, id string) error {
	matchKey := "match:" + id

	if err := that.client.Del(ctx, matchKey).Err(); err != nil {
		return fmt.Errorf("failed to delete match by ID: %w", err)
	}

	return nil
}
