package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GameStatus string

const (
	GameStatusLobby     GameStatus = "lobby"
	GameStatusActive    GameStatus = "active"
	GameStatusCompleted GameStatus = "completed"
	GameStatusAbandoned GameStatus = "abandoned"
)

// GameRecord is the durable record of a game session. Live state lives in the
// shared session store; a record is written at creation and finalized when
// the game completes.
type GameRecord struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	CreatorID   string     `json:"creator_id" gorm:"type:varchar(64);not null;index"`
	TotalRounds int        `json:"total_rounds" gorm:"not null"`
	Status      GameStatus `json:"status" gorm:"type:varchar(20);not null;default:'lobby'"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	// Relations
	Rounds  []RoundResult  `json:"rounds,omitempty" gorm:"foreignKey:GameID"`
	Players []PlayerResult `json:"players,omitempty" gorm:"foreignKey:GameID"`
}

// BeforeCreate sets the ID if not already set
func (g *GameRecord) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// IsFinished returns true once the game reached a terminal status
func (g *GameRecord) IsFinished() bool {
	return g.Status == GameStatusCompleted || g.Status == GameStatusAbandoned
}

// RoundResult is the outcome of one resolved round. Prices and chip amounts
// are integer cents.
type RoundResult struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	GameID      uuid.UUID `json:"game_id" gorm:"type:uuid;not null;index"`
	RoundNumber int       `json:"round_number" gorm:"not null"`
	StockRef    string    `json:"stock_ref" gorm:"type:varchar(64);not null"`
	FinalPrice  *int64    `json:"final_price,omitempty"`
	Pot         int64     `json:"pot" gorm:"not null"`
	Winners     []string  `json:"winners" gorm:"serializer:json"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate sets the ID if not already set
func (r *RoundResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// PlayerResult is one player's final standing in a completed game.
type PlayerResult struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	GameID     uuid.UUID `json:"game_id" gorm:"type:uuid;not null;index"`
	PlayerUID  string    `json:"player_uid" gorm:"type:varchar(64);not null"`
	Username   string    `json:"username" gorm:"type:varchar(64);not null"`
	FinalChips int64     `json:"final_chips" gorm:"not null"`
	NetChips   int64     `json:"net_chips" gorm:"not null"`
	Rank       int       `json:"rank" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate sets the ID if not already set
func (p *PlayerResult) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
