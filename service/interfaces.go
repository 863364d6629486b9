package service

import (
	"context"

	"reflector/events"
	"reflector/models"

	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByWallet retrieves a user by wallet address, returning nil when none exists
	GetByWallet(ctx context.Context, walletAddress string) (*models.User, error)

	// GetByID retrieves a user by ID, returning nil when none exists
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// Create creates a new, not yet onboarded user, returning nil when the wallet is already registered
	Create(ctx context.Context, walletAddress string) (*models.User, error)

	// Onboard sets the username and marks the user onboarded, returning nil when already onboarded
	Onboard(ctx context.Context, userID int64, username string) (*models.User, error)

	// GetAll returns all users, newest first
	GetAll(ctx context.Context) ([]*models.User, error)
}

// GameRepository defines the interface for game data access
type GameRepository interface {
	// Create inserts a game and fills in its ID and timestamps
	Create(ctx context.Context, game *models.Game) error

	// GetByID retrieves a game by ID, returning nil when none exists
	GetByID(ctx context.Context, id int64) (*models.Game, error)

	// GetByIDForUpdate retrieves a game and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Game, error)

	// GetAll returns games newest first, optionally filtered by status
	GetAll(ctx context.Context, status *models.GameStatus) ([]*models.Game, error)

	// GetByOwner returns the games a user created, newest first
	GetByOwner(ctx context.Context, ownerID int64) ([]*models.Game, error)

	// IncrementPool adds amount to the game's total pool and returns the new total
	IncrementPool(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error)

	// UpdateStatus sets the status and, when given, the final outcome
	UpdateStatus(ctx context.Context, id int64, status models.GameStatus, outcome *models.GameOutcome) (*models.Game, error)
}

// PlayerGameRepository defines the interface for player seat data access
type PlayerGameRepository interface {
	// Create inserts a player seat
	Create(ctx context.Context, player *models.PlayerGame) error

	// Get returns the user's seat in a game, or nil
	Get(ctx context.Context, gameID, userID int64) (*models.PlayerGame, error)

	// GetByGame returns a game's seats in join order
	GetByGame(ctx context.Context, gameID int64) ([]*models.PlayerGame, error)

	// GetByGames returns seats for several games keyed by game ID
	GetByGames(ctx context.Context, gameIDs []int64) (map[int64][]*models.PlayerGame, error)

	// GetByGameWithUsers returns a game's seats with their users in join order
	GetByGameWithUsers(ctx context.Context, gameID int64) ([]*models.PlayerWithUser, error)

	// GetByUser returns every seat a user holds with its game filled in
	GetByUser(ctx context.Context, userID int64) ([]*models.PlayerGame, error)

	// CountByGame returns the number of seats taken in a game
	CountByGame(ctx context.Context, gameID int64) (int, error)

	// UpdateAction records the player's choice
	UpdateAction(ctx context.Context, id int64, action models.PlayerAction) error
}

// StakeRepository defines the interface for staker and stake data access
type StakeRepository interface {
	// CreateStakerGame inserts the staker record for a user and game
	CreateStakerGame(ctx context.Context, stakerGame *models.StakerGame) error

	// GetStakerGame returns the user's staker record for a game, or nil
	GetStakerGame(ctx context.Context, gameID, userID int64) (*models.StakerGame, error)

	// GetStakerGamesByUser returns a user's staker records with their games
	GetStakerGamesByUser(ctx context.Context, userID int64) ([]*models.StakerGame, error)

	// CountStakersByGames returns the number of stakers per game
	CountStakersByGames(ctx context.Context, gameIDs []int64) (map[int64]int, error)

	// CreateStake inserts a stake
	CreateStake(ctx context.Context, stake *models.Stake) error

	// GetStakesByGames returns stakes for several games keyed by game ID
	GetStakesByGames(ctx context.Context, gameIDs []int64) (map[int64][]*models.Stake, error)

	// GetStakesByGameWithUsers returns a game's stakes with their users oldest first
	GetStakesByGameWithUsers(ctx context.Context, gameID int64) ([]*models.StakeWithUser, error)
}

// UserService defines the interface for wallet connection and onboarding
type UserService interface {
	// ConnectWallet returns the user for a wallet, creating one on first connection
	ConnectWallet(ctx context.Context, walletAddress string) (*models.User, bool, error)

	// OnboardUser sets the username for a connected wallet
	OnboardUser(ctx context.Context, walletAddress, username string) (*models.User, error)

	// GetUserByWallet returns a user with their games
	GetUserByWallet(ctx context.Context, walletAddress string) (*models.UserDetail, error)

	// GetUserByID returns a user with their games
	GetUserByID(ctx context.Context, id int64) (*models.UserDetail, error)

	// ListUsers returns all users, newest first
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// GameService defines the interface for game operations
type GameService interface {
	// CreateGame opens a new game owned by the wallet's user
	CreateGame(ctx context.Context, ownerWallet, name string, description *string, joiningAmount decimal.Decimal) (*models.Game, error)

	// GetGame returns a game with its players and stakes
	GetGame(ctx context.Context, gameID int64) (*models.GameDetail, error)

	// ListGames returns games newest first, optionally filtered by status
	ListGames(ctx context.Context, status *models.GameStatus) ([]*models.GameDetail, error)

	// GetPlayers returns a game's players with their users
	GetPlayers(ctx context.Context, gameID int64) ([]*models.PlayerWithUser, error)

	// JoinAsPlayer takes one of the two player seats
	JoinAsPlayer(ctx context.Context, gameID int64, walletAddress string, amount decimal.Decimal) (*models.PlayerGame, error)

	// UpdateGameStatus moves a game forward through its lifecycle
	UpdateGameStatus(ctx context.Context, gameID int64, callerWallet string, status models.GameStatus, outcome *models.GameOutcome) (*models.Game, error)

	// RecordPlayerAction stores a player's choice while the game is in progress
	RecordPlayerAction(ctx context.Context, gameID int64, walletAddress string, action models.PlayerAction) (*models.PlayerGame, error)
}

// StakeService defines the interface for staking operations
type StakeService interface {
	// JoinAsStaker bets on a game's outcome
	JoinAsStaker(ctx context.Context, gameID int64, walletAddress string, amount decimal.Decimal, prediction *models.GameOutcome) (*models.StakeResult, error)

	// GetStakes returns a game's stakes with their users
	GetStakes(ctx context.Context, gameID int64) ([]*models.StakeWithUser, error)

	// GetStakerGames returns the games a wallet has staked on
	GetStakerGames(ctx context.Context, walletAddress string) ([]*models.StakerGame, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes queued events
	Commit() error

	// Rollback rolls back the transaction and drops queued events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	GameRepository() GameRepository
	PlayerGameRepository() PlayerGameRepository
	StakeRepository() StakeRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
