package database

import (
	"log/slog"
)

// SetupIndexes creates additional indexes that GORM can't handle automatically
func (db *DB) SetupIndexes() error {
	slog.Info("Setting up additional database indexes")

	// One result row per round of a game
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_round_results_unique
		ON round_results(game_id, round_number)
	`).Error; err != nil {
		return err
	}

	// One standing row per player per game
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_player_results_unique
		ON player_results(game_id, player_uid)
	`).Error; err != nil {
		return err
	}

	// Player history lookups
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_player_results_history
		ON player_results(player_uid, created_at DESC)
	`).Error; err != nil {
		return err
	}

	slog.Info("Additional database indexes created successfully")
	return nil
}
