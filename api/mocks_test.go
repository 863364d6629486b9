package api

import (
	"context"

	"reflector/contract"
	"reflector/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) ConnectWallet(ctx context.Context, walletAddress string) (*models.User, bool, error) {
	args := m.Called(ctx, walletAddress)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserService) OnboardUser(ctx context.Context, walletAddress, username string) (*models.User, error) {
	args := m.Called(ctx, walletAddress, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetUserByWallet(ctx context.Context, walletAddress string) (*models.UserDetail, error) {
	args := m.Called(ctx, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserDetail), args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id int64) (*models.UserDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserDetail), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

type MockGameService struct {
	mock.Mock
}

func (m *MockGameService) CreateGame(ctx context.Context, ownerWallet, name string, description *string, joiningAmount decimal.Decimal) (*models.Game, error) {
	args := m.Called(ctx, ownerWallet, name, description, joiningAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGameService) GetGame(ctx context.Context, gameID int64) (*models.GameDetail, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameDetail), args.Error(1)
}

func (m *MockGameService) ListGames(ctx context.Context, status *models.GameStatus) ([]*models.GameDetail, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GameDetail), args.Error(1)
}

func (m *MockGameService) GetPlayers(ctx context.Context, gameID int64) ([]*models.PlayerWithUser, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PlayerWithUser), args.Error(1)
}

func (m *MockGameService) JoinAsPlayer(ctx context.Context, gameID int64, walletAddress string, amount decimal.Decimal) (*models.PlayerGame, error) {
	args := m.Called(ctx, gameID, walletAddress, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerGame), args.Error(1)
}

func (m *MockGameService) UpdateGameStatus(ctx context.Context, gameID int64, callerWallet string, status models.GameStatus, outcome *models.GameOutcome) (*models.Game, error) {
	args := m.Called(ctx, gameID, callerWallet, status, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGameService) RecordPlayerAction(ctx context.Context, gameID int64, walletAddress string, action models.PlayerAction) (*models.PlayerGame, error) {
	args := m.Called(ctx, gameID, walletAddress, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerGame), args.Error(1)
}

type MockStakeService struct {
	mock.Mock
}

func (m *MockStakeService) JoinAsStaker(ctx context.Context, gameID int64, walletAddress string, amount decimal.Decimal, prediction *models.GameOutcome) (*models.StakeResult, error) {
	args := m.Called(ctx, gameID, walletAddress, amount, prediction)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StakeResult), args.Error(1)
}

func (m *MockStakeService) GetStakes(ctx context.Context, gameID int64) ([]*models.StakeWithUser, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StakeWithUser), args.Error(1)
}

func (m *MockStakeService) GetStakerGames(ctx context.Context, walletAddress string) ([]*models.StakerGame, error) {
	args := m.Called(ctx, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StakerGame), args.Error(1)
}

type MockContractProvider struct {
	mock.Mock
}

func (m *MockContractProvider) Get() (*contract.Deployment, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Deployment), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
