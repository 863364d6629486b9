package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"reflector/events"
	"reflector/models"
	"reflector/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitFlushesEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventTypeUserCreated, func(ctx context.Context, e events.Event) {
		received <- e
	})

	uow := NewUnitOfWorkFactory(testDB.DB, bus).Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	user, err := uow.UserRepository().Create(ctx, testutil.WalletAddress(1))
	require.NoError(t, err)
	uow.EventBus().Publish(events.UserCreatedEvent{UserID: user.ID, WalletAddress: user.WalletAddress})

	select {
	case <-received:
		t.Fatal("event delivered before commit")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, uow.Commit())

	select {
	case e := <-received:
		assert.Equal(t, user.ID, e.(events.UserCreatedEvent).UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered after commit")
	}

	stored, err := NewUserRepository(testDB.DB).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestUnitOfWork_RollbackDiscardsWritesAndEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	var mu sync.Mutex
	delivered := 0
	bus.SubscribeAll(func(ctx context.Context, e events.Event) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	uow := NewUnitOfWorkFactory(testDB.DB, bus).Create()
	require.NoError(t, uow.Begin(ctx))

	user, err := uow.UserRepository().Create(ctx, testutil.WalletAddress(1))
	require.NoError(t, err)
	uow.EventBus().Publish(events.UserCreatedEvent{UserID: user.ID})

	require.NoError(t, uow.Rollback())
	// A second rollback is a no-op
	require.NoError(t, uow.Rollback())

	stored, err := NewUserRepository(testDB.DB).GetByWallet(ctx, testutil.WalletAddress(1))
	require.NoError(t, err)
	assert.Nil(t, stored)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 0, delivered)
	mu.Unlock()
}

func TestUnitOfWork_NotStarted(t *testing.T) {
	uow := &unitOfWork{transactionalBus: events.NewTransactionalBus(events.NewBus())}

	assert.Panics(t, func() { uow.GameRepository() })
	assert.Error(t, uow.Commit())
	assert.NoError(t, uow.Rollback())
}

func TestUnitOfWork_ForUpdateSerializesPoolUpdates(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	owner, err := NewUserRepository(testDB.DB).Create(ctx, testutil.WalletAddress(1))
	require.NoError(t, err)
	game := testutil.CreateTestGame(owner.ID, "Locked", "1")
	require.NoError(t, NewGameRepository(testDB.DB).Create(ctx, game))

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	const workers = 8

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uow := factory.Create()
			if err := uow.Begin(ctx); err != nil {
				errs <- err
				return
			}
			defer uow.Rollback()

			locked, err := uow.GameRepository().GetByIDForUpdate(ctx, game.ID)
			if err != nil {
				errs <- err
				return
			}
			if _, err := uow.GameRepository().IncrementPool(ctx, locked.ID, decimal.NewFromInt(1)); err != nil {
				errs <- err
				return
			}
			errs <- uow.Commit()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	final, err := NewGameRepository(testDB.DB).GetByID(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, final.TotalPool.Equal(decimal.NewFromInt(workers)))
	assert.Equal(t, models.GameStatusPending, final.Status)
}
