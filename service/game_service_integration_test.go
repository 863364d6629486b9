package service_test

import (
	"context"
	"sync"
	"testing"

	"reflector/events"
	"reflector/models"
	"reflector/repository"
	"reflector/repository/testutil"
	"reflector/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type integrationServices struct {
	users  service.UserService
	games  service.GameService
	stakes service.StakeService
}

func setupServices(t *testing.T) (*testutil.TestDatabase, *integrationServices) {
	testDB := testutil.SetupTestDatabase(t)
	factory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())

	return testDB, &integrationServices{
		users:  service.NewUserService(factory),
		games:  service.NewGameService(factory),
		stakes: service.NewStakeService(factory),
	}
}

func connect(t *testing.T, svc *integrationServices, n int) string {
	wallet := testutil.WalletAddress(n)
	_, _, err := svc.users.ConnectWallet(context.Background(), wallet)
	require.NoError(t, err)
	return wallet
}

func TestMatchScenario_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	_, svc := setupServices(t)
	ctx := context.Background()

	owner := connect(t, svc, 1)
	first := connect(t, svc, 2)
	second := connect(t, svc, 3)
	third := connect(t, svc, 4)

	joining := decimal.RequireFromString("0.05")
	game, err := svc.games.CreateGame(ctx, owner, "Match A", nil, joining)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusPending, game.Status)
	assert.True(t, game.TotalPool.IsZero())

	_, err = svc.games.JoinAsPlayer(ctx, game.ID, first, joining)
	require.NoError(t, err)

	detail, err := svc.games.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, detail.Game.TotalPool.Equal(decimal.RequireFromString("0.05")))
	assert.Len(t, detail.Players, 1)

	_, err = svc.games.JoinAsPlayer(ctx, game.ID, second, joining)
	require.NoError(t, err)

	detail, err = svc.games.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, detail.Game.TotalPool.Equal(decimal.RequireFromString("0.10")))
	assert.Len(t, detail.Players, 2)

	_, err = svc.games.JoinAsPlayer(ctx, game.ID, third, joining)
	require.ErrorIs(t, err, service.ErrGameFull)
	assert.Contains(t, err.Error(), "maximum number of players")

	detail, err = svc.games.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, detail.Game.TotalPool.Equal(decimal.RequireFromString("0.10")))
	assert.Len(t, detail.Players, 2)
}

func TestPoolAndParticipation_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	_, svc := setupServices(t)
	ctx := context.Background()

	owner := connect(t, svc, 1)
	p1 := connect(t, svc, 2)
	p2 := connect(t, svc, 3)
	s1 := connect(t, svc, 4)
	s2 := connect(t, svc, 5)

	game, err := svc.games.CreateGame(ctx, owner, "Pool", nil, decimal.RequireFromString("1"))
	require.NoError(t, err)

	_, err = svc.games.JoinAsPlayer(ctx, game.ID, p1, decimal.RequireFromString("1"))
	require.NoError(t, err)

	t.Run("same user cannot take a second seat", func(t *testing.T) {
		_, err := svc.games.JoinAsPlayer(ctx, game.ID, p1, decimal.RequireFromString("1"))
		assert.ErrorIs(t, err, service.ErrAlreadyPlayer)
	})

	_, err = svc.stakes.JoinAsStaker(ctx, game.ID, s1, decimal.RequireFromString("0.25"), nil)
	require.NoError(t, err)
	prediction := models.GameOutcomeGrabShare
	_, err = svc.stakes.JoinAsStaker(ctx, game.ID, s2, decimal.RequireFromString("2.5"), &prediction)
	require.NoError(t, err)

	t.Run("same user cannot stake twice", func(t *testing.T) {
		_, err := svc.stakes.JoinAsStaker(ctx, game.ID, s1, decimal.RequireFromString("1"), nil)
		assert.ErrorIs(t, err, service.ErrAlreadyStaker)
	})

	_, err = svc.games.JoinAsPlayer(ctx, game.ID, p2, decimal.RequireFromString("1"))
	require.NoError(t, err)

	detail, err := svc.games.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, detail.Game.TotalPool.Equal(decimal.RequireFromString("4.75")))
	assert.Equal(t, 2, detail.StakerCount)
	assert.Len(t, detail.Stakes, 2)

	_, err = svc.games.UpdateGameStatus(ctx, game.ID, owner, models.GameStatusInProgress, nil)
	require.NoError(t, err)

	t.Run("joining a running game mutates nothing", func(t *testing.T) {
		late := connect(t, svc, 6)
		_, err := svc.games.JoinAsPlayer(ctx, game.ID, late, decimal.RequireFromString("1"))
		assert.ErrorIs(t, err, service.ErrGameNotJoinable)
		_, err = svc.stakes.JoinAsStaker(ctx, game.ID, late, decimal.RequireFromString("1"), nil)
		assert.ErrorIs(t, err, service.ErrGameNotStakeable)

		after, err := svc.games.GetGame(ctx, game.ID)
		require.NoError(t, err)
		assert.True(t, after.Game.TotalPool.Equal(decimal.RequireFromString("4.75")))
		assert.Len(t, after.Players, 2)
		assert.Len(t, after.Stakes, 2)
	})

	_, err = svc.games.RecordPlayerAction(ctx, game.ID, p1, models.PlayerActionShare)
	require.NoError(t, err)
	_, err = svc.games.RecordPlayerAction(ctx, game.ID, p2, models.PlayerActionGrab)
	require.NoError(t, err)

	completed, err := svc.games.UpdateGameStatus(ctx, game.ID, owner, models.GameStatusCompleted, nil)
	require.NoError(t, err)
	require.NotNil(t, completed.FinalOutcome)
	assert.Equal(t, models.GameOutcomeShareGrab, *completed.FinalOutcome)

	players, err := svc.games.GetPlayers(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, players, 2)
	require.NotNil(t, players[0].Action)
	assert.Equal(t, models.PlayerActionShare, *players[0].Action)

	staked, err := svc.stakes.GetStakerGames(ctx, s2)
	require.NoError(t, err)
	require.Len(t, staked, 1)
	assert.Equal(t, game.ID, staked[0].GameID)

	user, err := svc.users.GetUserByWallet(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, user.OwnedGames, 1)
}

func TestConcurrentJoins_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	_, svc := setupServices(t)
	ctx := context.Background()

	owner := connect(t, svc, 1)
	game, err := svc.games.CreateGame(ctx, owner, "Rush", nil, decimal.RequireFromString("0.05"))
	require.NoError(t, err)

	const contenders = 6
	wallets := make([]string, contenders)
	for i := range wallets {
		wallets[i] = connect(t, svc, 100+i)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	joined, full := 0, 0
	for _, wallet := range wallets {
		wg.Add(1)
		go func(wallet string) {
			defer wg.Done()
			_, err := svc.games.JoinAsPlayer(ctx, game.ID, wallet, decimal.RequireFromString("0.05"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case assert.ErrorIs(t, err, service.ErrGameFull):
				full++
			}
		}(wallet)
	}
	wg.Wait()

	assert.Equal(t, models.MaxPlayers, joined)
	assert.Equal(t, contenders-models.MaxPlayers, full)

	detail, err := svc.games.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Players, models.MaxPlayers)
	assert.True(t, detail.Game.TotalPool.Equal(decimal.RequireFromString("0.10")))
}

func TestOnboarding_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	_, svc := setupServices(t)
	ctx := context.Background()

	wallet := "0xAbCdEf0123456789abcdef0123456789ABCDEF01"
	user, created, err := svc.users.ConnectWallet(ctx, wallet)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", user.WalletAddress)

	again, created, err := svc.users.ConnectWallet(ctx, wallet)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	onboarded, err := svc.users.OnboardUser(ctx, wallet, "reflector")
	require.NoError(t, err)
	assert.True(t, onboarded.IsOnboarded)

	_, err = svc.users.OnboardUser(ctx, wallet, "other")
	assert.ErrorIs(t, err, service.ErrAlreadyOnboarded)
}

func TestConcurrentConnects_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	_, svc := setupServices(t)
	ctx := context.Background()
	wallet := testutil.WalletAddress(77)

	const tabs = 5
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = make(map[int64]bool)
		errs    []error
	)
	for i := 0; i < tabs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, isNew, err := svc.users.ConnectWallet(ctx, wallet)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if isNew {
				created++
			}
			ids[user.ID] = true
		}()
	}
	wg.Wait()

	assert.Empty(t, errs)
	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)
}
