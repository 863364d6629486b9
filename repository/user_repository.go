package repository

import (
	"context"
	"errors"
	"fmt"

	"reflector/database"
	"reflector/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, wallet_address, username, is_onboarded, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.WalletAddress,
		&user.Username,
		&user.IsOnboarded,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByWallet retrieves a user by their normalised wallet address
func (r *UserRepository) GetByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE wallet_address = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, walletAddress))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by wallet %s: %w", walletAddress, err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// Create creates a new user that has not picked a username yet.
// It returns nil when the wallet is already registered.
func (r *UserRepository) Create(ctx context.Context, walletAddress string) (*models.User, error) {
	query := `
		INSERT INTO users (wallet_address)
		VALUES ($1)
		ON CONFLICT (wallet_address) DO NOTHING
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, walletAddress))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user with wallet %s: %w", walletAddress, err)
	}
	return user, nil
}

// Onboard sets the username and marks the user onboarded.
// It returns nil when the user does not exist or is already onboarded.
func (r *UserRepository) Onboard(ctx context.Context, userID int64, username string) (*models.User, error) {
	query := `
		UPDATE users
		SET username = $2, is_onboarded = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_onboarded
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, userID, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to onboard user %d: %w", userID, err)
	}
	return user, nil
}

// GetAll returns all users, newest first
func (r *UserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
