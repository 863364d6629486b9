package service

import (
	"context"

	"reflector/events"
	"reflector/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	args := m.Called(ctx, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, walletAddress string) (*models.User, error) {
	args := m.Called(ctx, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Onboard(ctx context.Context, userID int64, username string) (*models.User, error) {
	args := m.Called(ctx, userID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// MockGameRepository is a mock implementation of GameRepository
type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) Create(ctx context.Context, game *models.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockGameRepository) GetByID(ctx context.Context, id int64) (*models.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGameRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGameRepository) GetAll(ctx context.Context, status *models.GameStatus) ([]*models.Game, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Game), args.Error(1)
}

func (m *MockGameRepository) GetByOwner(ctx context.Context, ownerID int64) ([]*models.Game, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Game), args.Error(1)
}

func (m *MockGameRepository) IncrementPool(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockGameRepository) UpdateStatus(ctx context.Context, id int64, status models.GameStatus, outcome *models.GameOutcome) (*models.Game, error) {
	args := m.Called(ctx, id, status, outcome)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

// MockPlayerGameRepository is a mock implementation of PlayerGameRepository
type MockPlayerGameRepository struct {
	mock.Mock
}

func (m *MockPlayerGameRepository) Create(ctx context.Context, player *models.PlayerGame) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

func (m *MockPlayerGameRepository) Get(ctx context.Context, gameID, userID int64) (*models.PlayerGame, error) {
	args := m.Called(ctx, gameID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerGame), args.Error(1)
}

func (m *MockPlayerGameRepository) GetByGame(ctx context.Context, gameID int64) ([]*models.PlayerGame, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PlayerGame), args.Error(1)
}

func (m *MockPlayerGameRepository) GetByGames(ctx context.Context, gameIDs []int64) (map[int64][]*models.PlayerGame, error) {
	args := m.Called(ctx, gameIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]*models.PlayerGame), args.Error(1)
}

func (m *MockPlayerGameRepository) GetByGameWithUsers(ctx context.Context, gameID int64) ([]*models.PlayerWithUser, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PlayerWithUser), args.Error(1)
}

func (m *MockPlayerGameRepository) GetByUser(ctx context.Context, userID int64) ([]*models.PlayerGame, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PlayerGame), args.Error(1)
}

func (m *MockPlayerGameRepository) CountByGame(ctx context.Context, gameID int64) (int, error) {
	args := m.Called(ctx, gameID)
	return args.Int(0), args.Error(1)
}

func (m *MockPlayerGameRepository) UpdateAction(ctx context.Context, id int64, action models.PlayerAction) error {
	args := m.Called(ctx, id, action)
	return args.Error(0)
}

// MockStakeRepository is a mock implementation of StakeRepository
type MockStakeRepository struct {
	mock.Mock
}

func (m *MockStakeRepository) CreateStakerGame(ctx context.Context, stakerGame *models.StakerGame) error {
	args := m.Called(ctx, stakerGame)
	return args.Error(0)
}

func (m *MockStakeRepository) GetStakerGame(ctx context.Context, gameID, userID int64) (*models.StakerGame, error) {
	args := m.Called(ctx, gameID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StakerGame), args.Error(1)
}

func (m *MockStakeRepository) GetStakerGamesByUser(ctx context.Context, userID int64) ([]*models.StakerGame, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StakerGame), args.Error(1)
}

func (m *MockStakeRepository) CountStakersByGames(ctx context.Context, gameIDs []int64) (map[int64]int, error) {
	args := m.Called(ctx, gameIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]int), args.Error(1)
}

func (m *MockStakeRepository) CreateStake(ctx context.Context, stake *models.Stake) error {
	args := m.Called(ctx, stake)
	return args.Error(0)
}

func (m *MockStakeRepository) GetStakesByGames(ctx context.Context, gameIDs []int64) (map[int64][]*models.Stake, error) {
	args := m.Called(ctx, gameIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]*models.Stake), args.Error(1)
}

func (m *MockStakeRepository) GetStakesByGameWithUsers(ctx context.Context, gameID int64) ([]*models.StakeWithUser, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StakeWithUser), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork.
// Repositories are plain fields so tests configure them once with SetRepositories.
type MockUnitOfWork struct {
	mock.Mock

	userRepo   UserRepository
	gameRepo   GameRepository
	playerRepo PlayerGameRepository
	stakeRepo  StakeRepository
	eventBus   EventPublisher
}

// SetRepositories wires the repositories and event publisher the unit of work hands out
func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, gameRepo GameRepository, playerRepo PlayerGameRepository, stakeRepo StakeRepository, eventBus EventPublisher) {
	m.userRepo = userRepo
	m.gameRepo = gameRepo
	m.playerRepo = playerRepo
	m.stakeRepo = stakeRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) GameRepository() GameRepository {
	return m.gameRepo
}

func (m *MockUnitOfWork) PlayerGameRepository() PlayerGameRepository {
	return m.playerRepo
}

func (m *MockUnitOfWork) StakeRepository() StakeRepository {
	return m.stakeRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
