package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlayerAction is the choice a player makes during the game
type PlayerAction string

const (
	PlayerActionGrab  PlayerAction = "GRAB"
	PlayerActionShare PlayerAction = "SHARE"
)

// Valid reports whether the action is GRAB or SHARE
func (a PlayerAction) Valid() bool {
	return a == PlayerActionGrab || a == PlayerActionShare
}

// PlayerGame links a user to a game as one of its two competitors
type PlayerGame struct {
	ID            int64           `db:"id" json:"id"`
	GameID        int64           `db:"game_id" json:"gameId"`
	UserID        int64           `db:"user_id" json:"userId"`
	JoiningAmount decimal.Decimal `db:"joining_amount" json:"joiningAmount"`
	Action        *PlayerAction   `db:"action" json:"action"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	Game          *Game           `db:"-" json:"game,omitempty"`
}

// PlayerWithUser is a player seat with the user holding it
type PlayerWithUser struct {
	PlayerGame
	User *User `json:"user"`
}
