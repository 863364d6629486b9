package repository

import (
	"context"
	"errors"
	"fmt"

	"reflector/database"
	"reflector/models"
	"reflector/service"

	"github.com/jackc/pgx/v5"
)

const playerColumns = `pg.id, pg.game_id, pg.user_id, pg.joining_amount, pg.action::text, pg.created_at`

// PlayerGameRepository implements the PlayerGameRepository interface
type PlayerGameRepository struct {
	q queryable
}

// NewPlayerGameRepository creates a new player game repository
func NewPlayerGameRepository(db *database.DB) *PlayerGameRepository {
	return &PlayerGameRepository{q: db.Pool}
}

// newPlayerGameRepositoryWithTx creates a new player game repository with a transaction
func newPlayerGameRepositoryWithTx(tx queryable) *PlayerGameRepository {
	return &PlayerGameRepository{q: tx}
}

func playerScanTargets(p *models.PlayerGame) []any {
	return []any{&p.ID, &p.GameID, &p.UserID, &p.JoiningAmount, &p.Action, &p.CreatedAt}
}

func collectPlayers(rows pgx.Rows) ([]*models.PlayerGame, error) {
	defer rows.Close()

	players := []*models.PlayerGame{}
	for rows.Next() {
		var p models.PlayerGame
		if err := rows.Scan(playerScanTargets(&p)...); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}
	return players, nil
}

// Create inserts a player seat. A second seat for the same user maps to service.ErrAlreadyPlayer.
func (r *PlayerGameRepository) Create(ctx context.Context, player *models.PlayerGame) error {
	query := `
		INSERT INTO player_games (game_id, user_id, joining_amount)
		VALUES ($1, $2, $3::numeric)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, player.GameID, player.UserID, player.JoiningAmount).
		Scan(&player.ID, &player.CreatedAt)
	if isUniqueViolation(err, "player_games_game_user_key") {
		return service.ErrAlreadyPlayer
	}
	if err != nil {
		return fmt.Errorf("failed to create player for game %d: %w", player.GameID, err)
	}
	return nil
}

// Get returns the user's seat in a game
func (r *PlayerGameRepository) Get(ctx context.Context, gameID, userID int64) (*models.PlayerGame, error) {
	query := `SELECT ` + playerColumns + ` FROM player_games pg WHERE pg.game_id = $1 AND pg.user_id = $2`

	var p models.PlayerGame
	err := r.q.QueryRow(ctx, query, gameID, userID).Scan(playerScanTargets(&p)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d in game %d: %w", userID, gameID, err)
	}
	return &p, nil
}

// GetByGame returns a game's seats in join order
func (r *PlayerGameRepository) GetByGame(ctx context.Context, gameID int64) ([]*models.PlayerGame, error) {
	query := `SELECT ` + playerColumns + ` FROM player_games pg WHERE pg.game_id = $1 ORDER BY pg.id`

	rows, err := r.q.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for game %d: %w", gameID, err)
	}
	return collectPlayers(rows)
}

// GetByGames returns seats for several games keyed by game ID, each in join order
func (r *PlayerGameRepository) GetByGames(ctx context.Context, gameIDs []int64) (map[int64][]*models.PlayerGame, error) {
	result := make(map[int64][]*models.PlayerGame)
	if len(gameIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + playerColumns + ` FROM player_games pg WHERE pg.game_id = ANY($1) ORDER BY pg.id`

	rows, err := r.q.Query(ctx, query, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	players, err := collectPlayers(rows)
	if err != nil {
		return nil, err
	}

	for _, p := range players {
		result[p.GameID] = append(result[p.GameID], p)
	}
	return result, nil
}

// GetByGameWithUsers returns a game's seats with their users in join order
func (r *PlayerGameRepository) GetByGameWithUsers(ctx context.Context, gameID int64) ([]*models.PlayerWithUser, error) {
	query := `
		SELECT ` + playerColumns + `,
			u.id, u.wallet_address, u.username, u.is_onboarded, u.created_at, u.updated_at
		FROM player_games pg
		JOIN users u ON u.id = pg.user_id
		WHERE pg.game_id = $1
		ORDER BY pg.id
	`

	rows, err := r.q.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for game %d: %w", gameID, err)
	}
	defer rows.Close()

	players := []*models.PlayerWithUser{}
	for rows.Next() {
		p := &models.PlayerWithUser{User: &models.User{}}
		targets := append(playerScanTargets(&p.PlayerGame),
			&p.User.ID, &p.User.WalletAddress, &p.User.Username, &p.User.IsOnboarded, &p.User.CreatedAt, &p.User.UpdatedAt)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}
	return players, nil
}

// GetByUser returns every seat a user holds with its game, newest first
func (r *PlayerGameRepository) GetByUser(ctx context.Context, userID int64) ([]*models.PlayerGame, error) {
	query := `
		SELECT ` + playerColumns + `, ` + gameColumns + `
		FROM player_games pg
		JOIN games g ON g.id = pg.game_id
		WHERE pg.user_id = $1
		ORDER BY pg.id DESC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query player games for user %d: %w", userID, err)
	}
	defer rows.Close()

	players := []*models.PlayerGame{}
	for rows.Next() {
		p := &models.PlayerGame{Game: &models.Game{}}
		g := p.Game
		targets := append(playerScanTargets(p),
			&g.ID, &g.Name, &g.Description, &g.OwnerID, &g.JoiningAmount,
			&g.Status, &g.TotalPool, &g.FinalOutcome, &g.CreatedAt, &g.UpdatedAt,
		)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan player game: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player games: %w", err)
	}
	return players, nil
}

// CountByGame returns the number of seats taken in a game
func (r *PlayerGameRepository) CountByGame(ctx context.Context, gameID int64) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM player_games WHERE game_id = $1`, gameID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count players for game %d: %w", gameID, err)
	}
	return count, nil
}

// UpdateAction records the player's choice, replacing any earlier one
func (r *PlayerGameRepository) UpdateAction(ctx context.Context, id int64, action models.PlayerAction) error {
	result, err := r.q.Exec(ctx, `UPDATE player_games SET action = $2::text::player_action WHERE id = $1`, id, action)
	if err != nil {
		return fmt.Errorf("failed to update action for player %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("player %d not found", id)
	}
	return nil
}
