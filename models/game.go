package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxPlayers is the number of competitors a game holds
const MaxPlayers = 2

// GameStatus represents the lifecycle state of a game
type GameStatus string

const (
	GameStatusPending    GameStatus = "PENDING"
	GameStatusInProgress GameStatus = "IN_PROGRESS"
	GameStatusCompleted  GameStatus = "COMPLETED"
)

// Valid reports whether the status is one of the known states
func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusPending, GameStatusInProgress, GameStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a forward step
func (s GameStatus) CanTransitionTo(next GameStatus) bool {
	switch s {
	case GameStatusPending:
		return next == GameStatusInProgress
	case GameStatusInProgress:
		return next == GameStatusCompleted
	}
	return false
}

// GameOutcome is the pair of choices made by player one and player two
type GameOutcome string

const (
	GameOutcomeGrabGrab   GameOutcome = "GRAB_GRAB"
	GameOutcomeGrabShare  GameOutcome = "GRAB_SHARE"
	GameOutcomeShareGrab  GameOutcome = "SHARE_GRAB"
	GameOutcomeShareShare GameOutcome = "SHARE_SHARE"
)

// Valid reports whether the outcome is one of the four combinations
func (o GameOutcome) Valid() bool {
	switch o {
	case GameOutcomeGrabGrab, GameOutcomeGrabShare, GameOutcomeShareGrab, GameOutcomeShareShare:
		return true
	}
	return false
}

// OutcomeFromActions combines the first and second player's actions into an outcome
func OutcomeFromActions(first, second PlayerAction) (GameOutcome, bool) {
	if !first.Valid() || !second.Valid() {
		return "", false
	}
	return GameOutcome(string(first) + "_" + string(second)), true
}

// Game represents a two-player matchup with a pool of joining fees and stakes
type Game struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Description   *string         `db:"description" json:"description"`
	OwnerID       int64           `db:"owner_id" json:"ownerId"`
	JoiningAmount decimal.Decimal `db:"joining_amount" json:"joiningAmount"`
	Status        GameStatus      `db:"status" json:"status"`
	TotalPool     decimal.Decimal `db:"total_pool" json:"totalPool"`
	FinalOutcome  *GameOutcome    `db:"final_outcome" json:"finalOutcome"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// IsOpen reports whether the game still accepts players and stakers
func (g *Game) IsOpen() bool {
	return g.Status == GameStatusPending
}

// ActionsVisible reports whether players' choices may be shown. They stay private until the game completes.
func (g *Game) ActionsVisible() bool {
	return g.Status == GameStatusCompleted
}

// GameDetail is a game together with its players and stakes
type GameDetail struct {
	Game        *Game         `json:"game"`
	Players     []*PlayerGame `json:"players"`
	Stakes      []*Stake      `json:"stakes"`
	StakerCount int           `json:"stakerCount"`
}
