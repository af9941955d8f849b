package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/playpoints/xo-backend/internal/entity"
)

// Run - drives the lifecycle sweeps until the context is cancelled: expiring
// unanswered challenges, forfeiting inactive matches, and evicting terminal
// matches once their grace period is over.
func (that *matchUseCase) Run(ctx context.Context) {
	ticker := time.NewTicker(that.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			that.sweep(ctx)
		}
	}
}

func (that *matchUseCase) sweep(ctx context.Context) {
	now := time.Now()

	var expired []string
	for _, matchID := range that.registry.MatchIDs() {
		var state *entity.MatchState

		err := that.registry.WithMatch(matchID, func(match *entity.Match) error {
			switch {
			case match.IsTerminal():
				if now.Sub(match.FinishedAt) >= that.config.FinishedGrace {
					expired = append(expired, match.ID)
				}
			case match.Status == entity.StatusWaiting:
				if that.config.ChallengeTTL > 0 && now.Sub(match.CreatedAt) >= that.config.ChallengeTTL {
					that.logger.Info("challenge expired", "matchID", match.ID)
					that.abort(ctx, match)
					state = match.State()
				}
			case match.Status == entity.StatusInProgress:
				if that.config.MoveTimeout > 0 && now.Sub(match.LastMoveAt) >= that.config.MoveTimeout {
					// the side on turn has gone quiet; they forfeit
					idle := match.Turn
					if err := match.Forfeit(idle); err != nil {
						return fmt.Errorf("inactivity forfeit: %w", err)
					}
					that.logger.Info("match forfeited on inactivity", "matchID", match.ID, "mark", idle)
					that.settle(ctx, match)
					state = match.State()
				}
			}

			return nil
		})
		if err != nil {
			that.logger.Error("sweep failed for match", "matchID", matchID, "error", err)
		}

		if state != nil {
			that.persist(ctx, state)
		}
	}

	for _, matchID := range expired {
		that.evict(ctx, matchID)
	}
}
