package service

import (
	"context"
	"errors"
	"fmt"

	"reflector/events"
	"reflector/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type stakeService struct {
	uowFactory UnitOfWorkFactory
}

// NewStakeService creates a new stake service
func NewStakeService(uowFactory UnitOfWorkFactory) StakeService {
	return &stakeService{
		uowFactory: uowFactory,
	}
}

// JoinAsStaker records the user as a staker on a pending game and adds the stake to its pool
func (s *stakeService) JoinAsStaker(ctx context.Context, gameID int64, walletAddress string, amount decimal.Decimal, prediction *models.GameOutcome) (*models.StakeResult, error) {
	wallet, err := NormalizeWalletAddress(walletAddress)
	if err != nil {
		return nil, err
	}
	if err := validateAmount("amount", amount); err != nil {
		return nil, err
	}
	if prediction != nil && !prediction.Valid() {
		return nil, newValidationError("prediction", fmt.Sprintf("unknown game outcome %q", *prediction))
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	game, err := uow.GameRepository().GetByIDForUpdate(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if !game.IsOpen() {
		return nil, ErrGameNotStakeable
	}

	stakeRepo := uow.StakeRepository()
	existing, err := stakeRepo.GetStakerGame(ctx, gameID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing staker: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyStaker
	}

	stakerGame := &models.StakerGame{
		GameID: gameID,
		UserID: user.ID,
	}
	if err := stakeRepo.CreateStakerGame(ctx, stakerGame); err != nil {
		if errors.Is(err, ErrAlreadyStaker) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create staker: %w", err)
	}

	stake := &models.Stake{
		GameID:     gameID,
		UserID:     user.ID,
		Amount:     amount,
		Prediction: prediction,
	}
	if err := stakeRepo.CreateStake(ctx, stake); err != nil {
		return nil, fmt.Errorf("failed to create stake: %w", err)
	}

	totalPool, err := uow.GameRepository().IncrementPool(ctx, gameID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to update pool: %w", err)
	}

	uow.EventBus().Publish(events.StakePlacedEvent{
		GameID:     gameID,
		UserID:     user.ID,
		StakeID:    stake.ID,
		Amount:     amount,
		Prediction: prediction,
		TotalPool:  totalPool,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"gameID":    gameID,
		"userID":    user.ID,
		"amount":    amount.String(),
		"totalPool": totalPool.String(),
	}).Info("Stake placed")

	return &models.StakeResult{
		StakerGame: stakerGame,
		Stake:      stake,
	}, nil
}

// GetStakes returns a game's stakes oldest first
func (s *stakeService) GetStakes(ctx context.Context, gameID int64) ([]*models.StakeWithUser, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	game, err := uow.GameRepository().GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, ErrGameNotFound
	}

	stakes, err := uow.StakeRepository().GetStakesByGameWithUsers(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stakes: %w", err)
	}
	return stakes, nil
}

// GetStakerGames returns the games a wallet has staked on, newest first
func (s *stakeService) GetStakerGames(ctx context.Context, walletAddress string) ([]*models.StakerGame, error) {
	wallet, err := NormalizeWalletAddress(walletAddress)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	stakerGames, err := uow.StakeRepository().GetStakerGamesByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get staker games: %w", err)
	}
	return stakerGames, nil
}
