package testutil

import (
	"fmt"

	"reflector/models"

	"github.com/shopspring/decimal"
)

// WalletAddress returns a deterministic, valid, lower-case wallet address for n
func WalletAddress(n int) string {
	return fmt.Sprintf("0x%040x", n)
}

// CreateTestGame creates a pending game owned by ownerID with the given joining amount
func CreateTestGame(ownerID int64, name, joiningAmount string) *models.Game {
	return &models.Game{
		Name:          name,
		OwnerID:       ownerID,
		JoiningAmount: decimal.RequireFromString(joiningAmount),
		Status:        models.GameStatusPending,
		TotalPool:     decimal.Zero,
	}
}

// CreateTestPlayer creates a player seat for userID in gameID
func CreateTestPlayer(gameID, userID int64, joiningAmount string) *models.PlayerGame {
	return &models.PlayerGame{
		GameID:        gameID,
		UserID:        userID,
		JoiningAmount: decimal.RequireFromString(joiningAmount),
	}
}

// CreateTestStake creates a stake for userID in gameID
func CreateTestStake(gameID, userID int64, amount string, prediction *models.GameOutcome) *models.Stake {
	return &models.Stake{
		GameID:     gameID,
		UserID:     userID,
		Amount:     decimal.RequireFromString(amount),
		Prediction: prediction,
	}
}
