package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/evanofslack/stockpoker/internal/database"
	"github.com/evanofslack/stockpoker/internal/game"
	"github.com/evanofslack/stockpoker/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResultsService writes durable game outcomes to Postgres. Live session state
// stays in the shared store; this service only records what has already been
// decided.
type ResultsService struct {
	db *database.DB
}

// NewResultsService creates a new results service
func NewResultsService(db *database.DB) *ResultsService {
	return &ResultsService{db: db}
}

// RecordGameCreated writes the initial record for a new game session
func (rs *ResultsService) RecordGameCreated(ctx context.Context, s *game.Session) error {
	slog.Info("Recording game creation", "game_id", s.ID, "creator_id", s.CreatorID)

	record := &models.GameRecord{
		ID:          s.ID,
		CreatorID:   s.CreatorID,
		TotalRounds: s.TotalRounds,
		Status:      models.GameStatusLobby,
	}

	if err := rs.db.WithContext(ctx).Create(record).Error; err != nil {
		slog.Error("Failed to record game creation", "game_id", s.ID, "error", err)
		return fmt.Errorf("failed to record game creation: %w", err)
	}
	return nil
}

// MarkGameStarted transitions the game record out of the lobby
func (rs *ResultsService) MarkGameStarted(ctx context.Context, gameID uuid.UUID) error {
	result := rs.db.WithContext(ctx).Model(&models.GameRecord{}).
		Where("id = ? AND status = ?", gameID, models.GameStatusLobby).
		Update("status", models.GameStatusActive)

	if result.Error != nil {
		return fmt.Errorf("failed to mark game started: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no lobby game found to start: %s", gameID)
	}
	return nil
}

// RecordRoundResult writes the outcome of a resolved round
func (rs *ResultsService) RecordRoundResult(ctx context.Context, gameID uuid.UUID, r *game.Round) error {
	slog.Info("Recording round result", "game_id", gameID, "round", r.Number, "winners", r.Winners)

	// The live pot is zeroed when winners are paid, so the recorded pot is
	// the total wagered across the round.
	var pot int64
	for _, b := range r.Bets {
		pot += b.Amount
	}

	result := &models.RoundResult{
		GameID:      gameID,
		RoundNumber: r.Number,
		StockRef:    r.SelectedStock,
		FinalPrice:  r.FinalPrice,
		Pot:         pot,
		Winners:     r.Winners,
	}

	if err := rs.db.WithContext(ctx).Create(result).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			// Round already recorded by a concurrent writer, nothing to do.
			return nil
		}
		return fmt.Errorf("failed to record round result: %w", err)
	}
	return nil
}

// RecordGameCompleted finalizes the game record and writes player standings.
// Standings use competition ranking: players with equal chips share a rank.
func (rs *ResultsService) RecordGameCompleted(ctx context.Context, s *game.Session, startingChips int64) error {
	slog.Info("Recording game completion", "game_id", s.ID)

	standings := make([]*game.Player, len(s.Players))
	copy(standings, s.Players)
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Chips > standings[j].Chips
	})

	results := make([]models.PlayerResult, 0, len(standings))
	rank := 0
	for i, p := range standings {
		if i == 0 || p.Chips < standings[i-1].Chips {
			rank = i + 1
		}
		results = append(results, models.PlayerResult{
			GameID:     s.ID,
			PlayerUID:  p.UID,
			Username:   p.Username,
			FinalChips: p.Chips,
			NetChips:   p.Chips - startingChips,
			Rank:       rank,
		})
	}

	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.GameRecord{}).
			Where("id = ? AND status = ?", s.ID, models.GameStatusActive).
			Updates(map[string]interface{}{
				"status":       models.GameStatusCompleted,
				"completed_at": time.Now().UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("no active game found to complete: %s", s.ID)
		}
		return tx.Create(&results).Error
	})
	if err != nil {
		slog.Error("Failed to record game completion", "game_id", s.ID, "error", err)
		return fmt.Errorf("failed to record game completion: %w", err)
	}

	slog.Info("Game completion recorded", "game_id", s.ID, "players", len(results))
	return nil
}

// MarkGameAbandoned records that a game ended without completing
func (rs *ResultsService) MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) error {
	result := rs.db.WithContext(ctx).Model(&models.GameRecord{}).
		Where("id = ? AND status IN ?", gameID, []models.GameStatus{models.GameStatusLobby, models.GameStatusActive}).
		Update("status", models.GameStatusAbandoned)

	if result.Error != nil {
		return fmt.Errorf("failed to mark game abandoned: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no open game found to abandon: %s", gameID)
	}
	return nil
}

// GetGameRecord retrieves a game record with its rounds and standings
func (rs *ResultsService) GetGameRecord(ctx context.Context, gameID uuid.UUID) (*models.GameRecord, error) {
	var record models.GameRecord

	err := rs.db.WithContext(ctx).
		Preload("Rounds").
		Preload("Players").
		First(&record, "id = ?", gameID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("game record not found: %s", gameID)
		}
		return nil, fmt.Errorf("failed to get game record: %w", err)
	}

	return &record, nil
}

// GetPlayerHistory retrieves a player's standings across completed games
func (rs *ResultsService) GetPlayerHistory(ctx context.Context, playerUID string, limit int) ([]models.PlayerResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var results []models.PlayerResult
	err := rs.db.WithContext(ctx).
		Where("player_uid = ?", playerUID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get player history: %w", err)
	}

	return results, nil
}
