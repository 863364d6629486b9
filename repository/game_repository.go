package repository

import (
	"context"
	"errors"
	"fmt"

	"reflector/database"
	"reflector/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Enum columns are read and written as text so pgx needs no custom type registration
const gameColumns = `
	g.id, g.name, g.description, g.owner_id, g.joining_amount,
	g.status::text, g.total_pool, g.final_outcome::text, g.created_at, g.updated_at`

// GameRepository implements the GameRepository interface
type GameRepository struct {
	q queryable
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

// newGameRepositoryWithTx creates a new game repository with a transaction
func newGameRepositoryWithTx(tx queryable) *GameRepository {
	return &GameRepository{q: tx}
}

func scanGame(row pgx.Row) (*models.Game, error) {
	var game models.Game
	err := row.Scan(
		&game.ID,
		&game.Name,
		&game.Description,
		&game.OwnerID,
		&game.JoiningAmount,
		&game.Status,
		&game.TotalPool,
		&game.FinalOutcome,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func collectGames(rows pgx.Rows) ([]*models.Game, error) {
	defer rows.Close()

	games := []*models.Game{}
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}
	return games, nil
}

// Create inserts a game and fills in its ID and timestamps
func (r *GameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (name, description, owner_id, joining_amount, status, total_pool)
		VALUES ($1, $2, $3, $4::numeric, $5::text::game_status, $6::numeric)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		game.Name,
		game.Description,
		game.OwnerID,
		game.JoiningAmount,
		game.Status,
		game.TotalPool,
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// GetByID retrieves a game by ID
func (r *GameRepository) GetByID(ctx context.Context, id int64) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games g WHERE g.id = $1`

	game, err := scanGame(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}
	return game, nil
}

// GetByIDForUpdate retrieves a game and holds a row lock on it until the transaction ends.
// Outside a transaction the lock is released immediately.
func (r *GameRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games g WHERE g.id = $1 FOR UPDATE`

	game, err := scanGame(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock game %d: %w", id, err)
	}
	return game, nil
}

// GetAll returns games newest first, optionally filtered by status
func (r *GameRepository) GetAll(ctx context.Context, status *models.GameStatus) ([]*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games g
		WHERE $1::text IS NULL OR g.status = $1::text::game_status
		ORDER BY g.created_at DESC, g.id DESC
	`

	rows, err := r.q.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	return collectGames(rows)
}

// GetByOwner returns the games a user created, newest first
func (r *GameRepository) GetByOwner(ctx context.Context, ownerID int64) ([]*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games g
		WHERE g.owner_id = $1
		ORDER BY g.created_at DESC, g.id DESC
	`

	rows, err := r.q.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for owner %d: %w", ownerID, err)
	}
	return collectGames(rows)
}

// IncrementPool adds amount to the game's total pool and returns the new total
func (r *GameRepository) IncrementPool(ctx context.Context, id int64, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE games
		SET total_pool = total_pool + $2::numeric, updated_at = NOW()
		WHERE id = $1
		RETURNING total_pool
	`

	var total decimal.Decimal
	err := r.q.QueryRow(ctx, query, id, amount).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("game %d not found", id)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to increment pool for game %d: %w", id, err)
	}
	return total, nil
}

// UpdateStatus sets the game's status and, when outcome is non-nil, its final outcome
func (r *GameRepository) UpdateStatus(ctx context.Context, id int64, status models.GameStatus, outcome *models.GameOutcome) (*models.Game, error) {
	query := `
		UPDATE games g
		SET status = $2::text::game_status,
			final_outcome = COALESCE($3::text::game_outcome, g.final_outcome),
			updated_at = NOW()
		WHERE g.id = $1
		RETURNING ` + gameColumns

	game, err := scanGame(r.q.QueryRow(ctx, query, id, status, outcome))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("game %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update status for game %d: %w", id, err)
	}
	return game, nil
}
