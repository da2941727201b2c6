package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/evanofslack/stockpoker/internal/game"
	"github.com/evanofslack/stockpoker/internal/oracle"
	gamesync "github.com/evanofslack/stockpoker/internal/sync"
	"github.com/google/uuid"
)

// GameService orchestrates game actions: every mutation goes through the sync
// adapter so it commits against the latest shared state, and durable outcomes
// are recorded once a round or game resolves. The results service is optional
// for store-only deployments.
type GameService struct {
	adapter       *gamesync.Adapter
	results       *ResultsService
	priceOracle   oracle.PriceOracle
	startingChips int64
	totalRounds   int
}

// NewGameService creates a new game service
func NewGameService(adapter *gamesync.Adapter, results *ResultsService, priceOracle oracle.PriceOracle, startingChips int64, totalRounds int) *GameService {
	if startingChips <= 0 {
		startingChips = game.DefaultStartingChips
	}
	if totalRounds <= 0 {
		totalRounds = game.DefaultTotalRounds
	}
	return &GameService{
		adapter:       adapter,
		results:       results,
		priceOracle:   priceOracle,
		startingChips: startingChips,
		totalRounds:   totalRounds,
	}
}

// CreateGame creates a new session owned by the creator
func (gs *GameService) CreateGame(ctx context.Context, creatorUID, username string, totalRounds int) (*game.Session, error) {
	if totalRounds <= 0 {
		totalRounds = gs.totalRounds
	}
	s := game.NewSession(creatorUID, username, totalRounds, gs.startingChips)

	if err := gs.adapter.Create(ctx, s); err != nil {
		return nil, err
	}
	slog.Info("Game created", "game_id", s.ID, "creator_id", creatorUID, "total_rounds", totalRounds)

	if gs.results != nil {
		if err := gs.results.RecordGameCreated(ctx, s); err != nil {
			slog.Warn("Recording game creation", "game_id", s.ID, "error", err)
		}
	}
	return s, nil
}

// GetGame returns the current state of a session
func (gs *GameService) GetGame(ctx context.Context, gameID uuid.UUID) (*game.Session, error) {
	return gs.adapter.Store().Read(ctx, gameID)
}

// ListGames returns all live sessions
func (gs *GameService) ListGames(ctx context.Context) ([]*game.Session, error) {
	return gs.adapter.Store().List(ctx)
}

// JoinGame seats a player in a game that has not started
func (gs *GameService) JoinGame(ctx context.Context, gameID uuid.UUID, uid, username string) (*game.Session, error) {
	return gs.apply(ctx, gameID, func(g *game.Session) error {
		return g.AddPlayer(uid, username, gs.startingChips)
	})
}

// LeaveGame removes a player from a game that has not started
func (gs *GameService) LeaveGame(ctx context.Context, gameID uuid.UUID, uid string) (*game.Session, error) {
	return gs.apply(ctx, gameID, func(g *game.Session) error {
		return g.RemovePlayer(uid)
	})
}

// StartGame begins play. Only the creator may start.
func (gs *GameService) StartGame(ctx context.Context, gameID uuid.UUID, actorUID string) (*game.Session, error) {
	s, err := gs.apply(ctx, gameID, func(g *game.Session) error {
		return g.Start(actorUID)
	})
	if err != nil {
		return nil, err
	}
	if gs.results != nil {
		if err := gs.results.MarkGameStarted(ctx, gameID); err != nil {
			slog.Warn("Recording game start", "game_id", gameID, "error", err)
		}
	}
	return s, nil
}

// DeleteGame tears down a session. Only the creator may delete.
func (gs *GameService) DeleteGame(ctx context.Context, gameID uuid.UUID, actorUID string) error {
	s, err := gs.adapter.Store().Read(ctx, gameID)
	if err != nil {
		return err
	}
	if s.CreatorID != actorUID {
		return game.ErrNotCreator
	}

	if err := gs.adapter.Delete(ctx, gameID); err != nil {
		return err
	}
	slog.Info("Game deleted", "game_id", gameID, "actor_uid", actorUID)

	if gs.results != nil && !s.Completed {
		if err := gs.results.MarkGameAbandoned(ctx, gameID); err != nil {
			slog.Warn("Recording game abandonment", "game_id", gameID, "error", err)
		}
	}
	return nil
}

// SelectStock records the creator's stock pick for the current round
func (gs *GameService) SelectStock(ctx context.Context, gameID uuid.UUID, actorUID, stockRef string) (*game.Session, error) {
	return gs.apply(ctx, gameID, func(g *game.Session) error {
		return g.SelectStock(actorUID, stockRef)
	})
}

// SubmitPrediction records a player's price prediction, in integer cents. A
// repeat submission is rejected and the original prediction stands.
func (gs *GameService) SubmitPrediction(ctx context.Context, gameID uuid.UUID, uid string, priceCents int64) (*game.Session, error) {
	s, err := gs.apply(ctx, gameID, func(g *game.Session) error {
		return g.SubmitPrediction(uid, priceCents)
	})
	if err != nil {
		if errors.Is(err, game.ErrDuplicatePrediction) {
			slog.Warn("Duplicate prediction rejected", "game_id", gameID, "uid", uid)
		}
		return nil, err
	}
	return s, nil
}

// PlaceBet adds chips to the player's cumulative bet for the round
func (gs *GameService) PlaceBet(ctx context.Context, gameID uuid.UUID, uid string, amount int64) (*game.Session, error) {
	return gs.apply(ctx, gameID, func(g *game.Session) error {
		return g.PlaceBet(uid, amount)
	})
}

// SetBetTotal raises the player's cumulative bet to the given total. Safe to
// retransmit: a duplicate instruction is a no-op.
func (gs *GameService) SetBetTotal(ctx context.Context, gameID uuid.UUID, uid string, total int64) (*game.Session, error) {
	return gs.apply(ctx, gameID, func(g *game.Session) error {
		return g.SetBetTotal(uid, total)
	})
}

// Fold removes the player from the current round
func (gs *GameService) Fold(ctx context.Context, gameID uuid.UUID, uid string) (*game.Session, error) {
	return gs.apply(ctx, gameID, func(g *game.Session) error {
		return g.Fold(uid)
	})
}

// AdvanceInterlude moves the game out of a discussion pause into the next
// betting phase
func (gs *GameService) AdvanceInterlude(ctx context.Context, gameID uuid.UUID, uid string) (*game.Session, error) {
	return gs.apply(ctx, gameID, func(g *game.Session) error {
		return g.AdvanceInterlude(uid)
	})
}

// AnnouncePrice resolves the current round with the final observed price, in
// integer cents. Only the creator may announce.
func (gs *GameService) AnnouncePrice(ctx context.Context, gameID uuid.UUID, actorUID string, priceCents int64) (*game.Session, error) {
	return gs.apply(ctx, gameID, func(g *game.Session) error {
		return g.AnnouncePrice(actorUID, priceCents)
	})
}

// ResolveWithOracle resolves the current round using the configured price
// oracle instead of an explicit announcement.
func (gs *GameService) ResolveWithOracle(ctx context.Context, gameID uuid.UUID, actorUID string) (*game.Session, error) {
	if gs.priceOracle == nil {
		return nil, fmt.Errorf("no price oracle configured")
	}

	s, err := gs.adapter.Store().Read(ctx, gameID)
	if err != nil {
		return nil, err
	}
	r := s.Round(s.CurrentRound)
	if r == nil || r.SelectedStock == "" {
		return nil, game.ErrWrongPhase
	}

	price, err := gs.priceOracle.GetFinalPrice(ctx, r.SelectedStock)
	if err != nil {
		return nil, err
	}
	return gs.AnnouncePrice(ctx, gameID, actorUID, price)
}

// apply routes an action through the sync adapter and records any rounds it
// resolved. The capture variables reset on every attempt because a version
// conflict re-runs the closure against refreshed state.
func (gs *GameService) apply(ctx context.Context, gameID uuid.UUID, action func(*game.Session) error) (*game.Session, error) {
	var resolved []*game.Round
	var completed bool

	s, err := gs.adapter.Apply(ctx, gameID, func(g *game.Session) error {
		resolved = resolved[:0]
		completed = false

		before := g.CurrentRound
		if err := action(g); err != nil {
			return err
		}
		for n := before; n < g.CurrentRound; n++ {
			resolved = append(resolved, g.Round(n))
		}
		completed = g.Completed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if gs.results != nil {
		for _, r := range resolved {
			if err := gs.results.RecordRoundResult(ctx, gameID, r); err != nil {
				slog.Warn("Recording round result", "game_id", gameID, "round", r.Number, "error", err)
			}
		}
		if completed {
			if err := gs.results.RecordGameCompleted(ctx, s, gs.startingChips); err != nil {
				slog.Warn("Recording game completion", "game_id", gameID, "error", err)
			}
		}
	}
	return s, nil
}
