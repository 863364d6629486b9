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

type gameService struct {
	uowFactory UnitOfWorkFactory
}

// NewGameService creates a new game service
func NewGameService(uowFactory UnitOfWorkFactory) GameService {
	return &gameService{
		uowFactory: uowFactory,
	}
}

// CreateGame opens a new pending game with an empty pool
func (s *gameService) CreateGame(ctx context.Context, ownerWallet, name string, description *string, joiningAmount decimal.Decimal) (*models.Game, error) {
	wallet, err := NormalizeWalletAddress(ownerWallet)
	if err != nil {
		return nil, err
	}
	name, description, err = validateGameInput(name, description)
	if err != nil {
		return nil, err
	}
	if err := validateAmount("joiningAmount", joiningAmount); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	owner, err := uow.UserRepository().GetByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	if owner == nil {
		return nil, ErrUserNotFound
	}

	game := &models.Game{
		Name:          name,
		Description:   description,
		OwnerID:       owner.ID,
		JoiningAmount: joiningAmount,
		Status:        models.GameStatusPending,
		TotalPool:     decimal.Zero,
	}
	if err := uow.GameRepository().Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	uow.EventBus().Publish(events.GameCreatedEvent{
		GameID:        game.ID,
		Name:          game.Name,
		OwnerID:       owner.ID,
		OwnerName:     owner.DisplayName(),
		JoiningAmount: game.JoiningAmount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"gameID":        game.ID,
		"ownerID":       owner.ID,
		"joiningAmount": game.JoiningAmount.String(),
	}).Info("Game created")

	return game, nil
}

// GetGame returns a game with its players and stakes
func (s *gameService) GetGame(ctx context.Context, gameID int64) (*models.GameDetail, error) {
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

	details, err := loadGameDetails(ctx, uow, []*models.Game{game})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// ListGames returns games newest first, optionally filtered by status
func (s *gameService) ListGames(ctx context.Context, status *models.GameStatus) ([]*models.GameDetail, error) {
	if status != nil && !status.Valid() {
		return nil, newValidationError("status", fmt.Sprintf("unknown game status %q", *status))
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	games, err := uow.GameRepository().GetAll(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	return loadGameDetails(ctx, uow, games)
}

// GetPlayers returns a game's players in join order
func (s *gameService) GetPlayers(ctx context.Context, gameID int64) ([]*models.PlayerWithUser, error) {
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

	players, err := uow.PlayerGameRepository().GetByGameWithUsers(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}

	if !game.ActionsVisible() {
		for _, p := range players {
			p.Action = nil
		}
	}
	return players, nil
}

// JoinAsPlayer takes a player seat and adds the joining amount to the pool
func (s *gameService) JoinAsPlayer(ctx context.Context, gameID int64, walletAddress string, amount decimal.Decimal) (*models.PlayerGame, error) {
	wallet, err := NormalizeWalletAddress(walletAddress)
	if err != nil {
		return nil, err
	}
	if err := validateAmount("amount", amount); err != nil {
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

	// Lock the game row so concurrent joins see each other's seats
	game, err := uow.GameRepository().GetByIDForUpdate(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if !game.IsOpen() {
		return nil, ErrGameNotJoinable
	}

	playerRepo := uow.PlayerGameRepository()
	count, err := playerRepo.CountByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}
	if count >= models.MaxPlayers {
		return nil, ErrGameFull
	}

	existing, err := playerRepo.Get(ctx, gameID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing player: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyPlayer
	}

	if !amount.Equal(game.JoiningAmount) {
		return nil, newValidationError("amount", fmt.Sprintf("joining amount must be exactly %s", game.JoiningAmount.String()))
	}

	player := &models.PlayerGame{
		GameID:        gameID,
		UserID:        user.ID,
		JoiningAmount: amount,
	}
	if err := playerRepo.Create(ctx, player); err != nil {
		if errors.Is(err, ErrAlreadyPlayer) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	totalPool, err := uow.GameRepository().IncrementPool(ctx, gameID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to update pool: %w", err)
	}

	uow.EventBus().Publish(events.PlayerJoinedEvent{
		GameID:        gameID,
		GameName:      game.Name,
		UserID:        user.ID,
		PlayerName:    user.DisplayName(),
		JoiningAmount: amount,
		PlayerCount:   count + 1,
		TotalPool:     totalPool,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"gameID":    gameID,
		"userID":    user.ID,
		"seat":      count + 1,
		"totalPool": totalPool.String(),
	}).Info("Player joined game")

	return player, nil
}

// UpdateGameStatus moves a game forward. Only the owner may do this.
func (s *gameService) UpdateGameStatus(ctx context.Context, gameID int64, callerWallet string, status models.GameStatus, outcome *models.GameOutcome) (*models.Game, error) {
	wallet, err := NormalizeWalletAddress(callerWallet)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, newValidationError("status", fmt.Sprintf("unknown game status %q", status))
	}
	if outcome != nil {
		if !outcome.Valid() {
			return nil, newValidationError("finalOutcome", fmt.Sprintf("unknown game outcome %q", *outcome))
		}
		if status != models.GameStatusCompleted {
			return nil, newValidationError("finalOutcome", "final outcome can only be set when completing a game")
		}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	caller, err := uow.UserRepository().GetByWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if caller == nil {
		return nil, ErrUserNotFound
	}

	game, err := uow.GameRepository().GetByIDForUpdate(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.OwnerID != caller.ID {
		return nil, ErrNotGameOwner
	}
	if !game.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, game.Status, status)
	}

	players, err := uow.PlayerGameRepository().GetByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}

	switch status {
	case models.GameStatusInProgress:
		if len(players) != models.MaxPlayers {
			return nil, ErrNotEnoughPlayers
		}
	case models.GameStatusCompleted:
		if outcome == nil {
			derived, ok := outcomeFromPlayers(players)
			if !ok {
				return nil, ErrOutcomeRequired
			}
			outcome = &derived
		}
	}

	oldStatus := game.Status
	updated, err := uow.GameRepository().UpdateStatus(ctx, gameID, status, outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to update game status: %w", err)
	}

	uow.EventBus().Publish(events.GameStatusChangedEvent{
		GameID:       gameID,
		GameName:     updated.Name,
		OldStatus:    oldStatus,
		NewStatus:    updated.Status,
		FinalOutcome: updated.FinalOutcome,
		TotalPool:    updated.TotalPool,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"gameID":    gameID,
		"oldStatus": oldStatus,
		"newStatus": updated.Status,
	}).Info("Game status changed")

	return updated, nil
}

// RecordPlayerAction stores a player's GRAB or SHARE choice while the game runs
func (s *gameService) RecordPlayerAction(ctx context.Context, gameID int64, walletAddress string, action models.PlayerAction) (*models.PlayerGame, error) {
	wallet, err := NormalizeWalletAddress(walletAddress)
	if err != nil {
		return nil, err
	}
	if !action.Valid() {
		return nil, newValidationError("action", "action must be GRAB or SHARE")
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
	if game.Status != models.GameStatusInProgress {
		return nil, ErrGameNotInProgress
	}

	player, err := uow.PlayerGameRepository().Get(ctx, gameID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, ErrNotPlayer
	}

	if err := uow.PlayerGameRepository().UpdateAction(ctx, player.ID, action); err != nil {
		return nil, fmt.Errorf("failed to record action: %w", err)
	}
	player.Action = &action

	uow.EventBus().Publish(events.PlayerActionRecordedEvent{
		GameID: gameID,
		UserID: user.ID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return player, nil
}

// outcomeFromPlayers derives the outcome once both seats have chosen
func outcomeFromPlayers(players []*models.PlayerGame) (models.GameOutcome, bool) {
	if len(players) != models.MaxPlayers || players[0].Action == nil || players[1].Action == nil {
		return "", false
	}
	return models.OutcomeFromActions(*players[0].Action, *players[1].Action)
}

// loadGameDetails batches the player and stake lookups for a page of games
func loadGameDetails(ctx context.Context, uow UnitOfWork, games []*models.Game) ([]*models.GameDetail, error) {
	details := make([]*models.GameDetail, 0, len(games))
	if len(games) == 0 {
		return details, nil
	}

	ids := make([]int64, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}

	players, err := uow.PlayerGameRepository().GetByGames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	stakes, err := uow.StakeRepository().GetStakesByGames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get stakes: %w", err)
	}
	stakerCounts, err := uow.StakeRepository().CountStakersByGames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count stakers: %w", err)
	}

	for _, g := range games {
		seats := players[g.ID]
		if seats == nil {
			seats = []*models.PlayerGame{}
		}
		// Choices stay private until the game is over
		if !g.ActionsVisible() {
			for _, p := range seats {
				p.Action = nil
			}
		}
		gameStakes := stakes[g.ID]
		if gameStakes == nil {
			gameStakes = []*models.Stake{}
		}
		details = append(details, &models.GameDetail{
			Game:        g,
			Players:     seats,
			Stakes:      gameStakes,
			StakerCount: stakerCounts[g.ID],
		})
	}
	return details, nil
}
