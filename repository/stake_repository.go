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

const stakeColumns = `s.id, s.game_id, s.user_id, s.amount, s.prediction::text, s.created_at`

// StakeRepository implements the StakeRepository interface
type StakeRepository struct {
	q queryable
}

// NewStakeRepository creates a new stake repository
func NewStakeRepository(db *database.DB) *StakeRepository {
	return &StakeRepository{q: db.Pool}
}

// newStakeRepositoryWithTx creates a new stake repository with a transaction
func newStakeRepositoryWithTx(tx queryable) *StakeRepository {
	return &StakeRepository{q: tx}
}

func stakeScanTargets(s *models.Stake) []any {
	return []any{&s.ID, &s.GameID, &s.UserID, &s.Amount, &s.Prediction, &s.CreatedAt}
}

func collectStakes(rows pgx.Rows) ([]*models.Stake, error) {
	defer rows.Close()

	stakes := []*models.Stake{}
	for rows.Next() {
		var s models.Stake
		if err := rows.Scan(stakeScanTargets(&s)...); err != nil {
			return nil, fmt.Errorf("failed to scan stake: %w", err)
		}
		stakes = append(stakes, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stakes: %w", err)
	}
	return stakes, nil
}

// CreateStakerGame inserts the staker record. A second record for the same user maps to service.ErrAlreadyStaker.
func (r *StakeRepository) CreateStakerGame(ctx context.Context, stakerGame *models.StakerGame) error {
	query := `
		INSERT INTO staker_games (game_id, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, stakerGame.GameID, stakerGame.UserID).
		Scan(&stakerGame.ID, &stakerGame.CreatedAt)
	if isUniqueViolation(err, "staker_games_game_user_key") {
		return service.ErrAlreadyStaker
	}
	if err != nil {
		return fmt.Errorf("failed to create staker for game %d: %w", stakerGame.GameID, err)
	}
	return nil
}

// GetStakerGame returns the user's staker record for a game
func (r *StakeRepository) GetStakerGame(ctx context.Context, gameID, userID int64) (*models.StakerGame, error) {
	query := `SELECT id, game_id, user_id, created_at FROM staker_games WHERE game_id = $1 AND user_id = $2`

	var sg models.StakerGame
	err := r.q.QueryRow(ctx, query, gameID, userID).Scan(&sg.ID, &sg.GameID, &sg.UserID, &sg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staker %d in game %d: %w", userID, gameID, err)
	}
	return &sg, nil
}

// GetStakerGamesByUser returns a user's staker records with their games, newest first
func (r *StakeRepository) GetStakerGamesByUser(ctx context.Context, userID int64) ([]*models.StakerGame, error) {
	query := `
		SELECT sg.id, sg.game_id, sg.user_id, sg.created_at, ` + gameColumns + `
		FROM staker_games sg
		JOIN games g ON g.id = sg.game_id
		WHERE sg.user_id = $1
		ORDER BY sg.id DESC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query staker games for user %d: %w", userID, err)
	}
	defer rows.Close()

	stakerGames := []*models.StakerGame{}
	for rows.Next() {
		sg := &models.StakerGame{Game: &models.Game{}}
		g := sg.Game
		err := rows.Scan(
			&sg.ID, &sg.GameID, &sg.UserID, &sg.CreatedAt,
			&g.ID, &g.Name, &g.Description, &g.OwnerID, &g.JoiningAmount,
			&g.Status, &g.TotalPool, &g.FinalOutcome, &g.CreatedAt, &g.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staker game: %w", err)
		}
		stakerGames = append(stakerGames, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staker games: %w", err)
	}
	return stakerGames, nil
}

// CountStakersByGames returns the number of stakers per game. Games without stakers are absent.
func (r *StakeRepository) CountStakersByGames(ctx context.Context, gameIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int)
	if len(gameIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT game_id, COUNT(*)
		FROM staker_games
		WHERE game_id = ANY($1)
		GROUP BY game_id
	`

	rows, err := r.q.Query(ctx, query, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count stakers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var gameID int64
		var count int
		if err := rows.Scan(&gameID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan staker count: %w", err)
		}
		counts[gameID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staker counts: %w", err)
	}
	return counts, nil
}

// CreateStake inserts a stake and fills in its ID and timestamp
func (r *StakeRepository) CreateStake(ctx context.Context, stake *models.Stake) error {
	query := `
		INSERT INTO stakes (game_id, user_id, amount, prediction)
		VALUES ($1, $2, $3::numeric, $4::text::game_outcome)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, stake.GameID, stake.UserID, stake.Amount, stake.Prediction).
		Scan(&stake.ID, &stake.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create stake for game %d: %w", stake.GameID, err)
	}
	return nil
}

// GetStakesByGames returns stakes for several games keyed by game ID, oldest first
func (r *StakeRepository) GetStakesByGames(ctx context.Context, gameIDs []int64) (map[int64][]*models.Stake, error) {
	result := make(map[int64][]*models.Stake)
	if len(gameIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + stakeColumns + ` FROM stakes s WHERE s.game_id = ANY($1) ORDER BY s.id`

	rows, err := r.q.Query(ctx, query, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query stakes: %w", err)
	}
	stakes, err := collectStakes(rows)
	if err != nil {
		return nil, err
	}

	for _, s := range stakes {
		result[s.GameID] = append(result[s.GameID], s)
	}
	return result, nil
}

// GetStakesByGameWithUsers returns a game's stakes with their users oldest first
func (r *StakeRepository) GetStakesByGameWithUsers(ctx context.Context, gameID int64) ([]*models.StakeWithUser, error) {
	query := `
		SELECT ` + stakeColumns + `,
			u.id, u.wallet_address, u.username, u.is_onboarded, u.created_at, u.updated_at
		FROM stakes s
		JOIN users u ON u.id = s.user_id
		WHERE s.game_id = $1
		ORDER BY s.id
	`

	rows, err := r.q.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stakes for game %d: %w", gameID, err)
	}
	defer rows.Close()

	stakes := []*models.StakeWithUser{}
	for rows.Next() {
		s := &models.StakeWithUser{User: &models.User{}}
		targets := append(stakeScanTargets(&s.Stake),
			&s.User.ID, &s.User.WalletAddress, &s.User.Username, &s.User.IsOnboarded, &s.User.CreatedAt, &s.User.UpdatedAt)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan stake: %w", err)
		}
		stakes = append(stakes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stakes: %w", err)
	}
	return stakes, nil
}
