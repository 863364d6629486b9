package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StakerGame links a user to a game as a bettor
type StakerGame struct {
	ID        int64     `db:"id" json:"id"`
	GameID    int64     `db:"game_id" json:"gameId"`
	UserID    int64     `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	Game      *Game     `db:"-" json:"game,omitempty"`
}

// Stake is the amount a staker put into a game's pool
type Stake struct {
	ID         int64           `db:"id" json:"id"`
	GameID     int64           `db:"game_id" json:"gameId"`
	UserID     int64           `db:"user_id" json:"userId"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Prediction *GameOutcome    `db:"prediction" json:"prediction"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// StakeWithUser is a stake with the user who placed it
type StakeWithUser struct {
	Stake
	User *User `json:"user"`
}

// StakeResult is returned after joining a game as a staker
type StakeResult struct {
	StakerGame *StakerGame `json:"stakerGame"`
	Stake      *Stake      `json:"stake"`
}
