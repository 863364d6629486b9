package service

import (
	"context"
	"fmt"

	"reflector/events"
	"reflector/models"

	log "github.com/sirupsen/logrus"
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{
		uowFactory: uowFactory,
	}
}

// ConnectWallet retrieves the user for a wallet or creates a new, not yet onboarded one
func (s *userService) ConnectWallet(ctx context.Context, walletAddress string) (*models.User, bool, error) {
	wallet, err := NormalizeWalletAddress(walletAddress)
	if err != nil {
		return nil, false, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByWallet(ctx, wallet)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing user: %w", err)
	}
	if user != nil {
		return user, false, nil
	}

	user, err = uow.UserRepository().Create(ctx, wallet)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	if user == nil {
		// A concurrent connect registered the wallet first
		user, err = uow.UserRepository().GetByWallet(ctx, wallet)
		if err != nil {
			return nil, false, fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return nil, false, fmt.Errorf("user for wallet %s vanished after insert conflict", wallet)
		}
		return user, false, nil
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
	})

	if err := uow.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": user.ID,
		"wallet": user.WalletAddress,
	}).Info("Created user for new wallet")

	return user, true, nil
}

// OnboardUser sets the username of a connected wallet's user
func (s *userService) OnboardUser(ctx context.Context, walletAddress, username string) (*models.User, error) {
	wallet, err := NormalizeWalletAddress(walletAddress)
	if err != nil {
		return nil, err
	}
	username, err = validateUsername(username)
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
	if user.IsOnboarded {
		return nil, ErrAlreadyOnboarded
	}

	user, err = uow.UserRepository().Onboard(ctx, user.ID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to onboard user: %w", err)
	}
	if user == nil {
		// Lost a race with another onboarding request
		return nil, ErrAlreadyOnboarded
	}

	uow.EventBus().Publish(events.UserOnboardedEvent{
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
		Username:      username,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// GetUserByWallet returns a user with the games they own, play and stake on
func (s *userService) GetUserByWallet(ctx context.Context, walletAddress string) (*models.UserDetail, error) {
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

	return loadUserDetail(ctx, uow, user)
}

// GetUserByID returns a user with the games they own, play and stake on
func (s *userService) GetUserByID(ctx context.Context, id int64) (*models.UserDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return loadUserDetail(ctx, uow, user)
}

// ListUsers returns all users, newest first
func (s *userService) ListUsers(ctx context.Context) ([]*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

func loadUserDetail(ctx context.Context, uow UnitOfWork, user *models.User) (*models.UserDetail, error) {
	owned, err := uow.GameRepository().GetByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get owned games: %w", err)
	}

	seats, err := uow.PlayerGameRepository().GetByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player games: %w", err)
	}
	for _, seat := range seats {
		if seat.Game == nil || !seat.Game.ActionsVisible() {
			seat.Action = nil
		}
	}

	staked, err := uow.StakeRepository().GetStakerGamesByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get staker games: %w", err)
	}

	return &models.UserDetail{
		User:        user,
		OwnedGames:  owned,
		PlayerGames: seats,
		StakerGames: staked,
	}, nil
}
