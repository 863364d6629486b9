package events

import (
	"context"
	"sync"

	"reflector/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserCreated          EventType = "user_created"
	EventTypeUserOnboarded        EventType = "user_onboarded"
	EventTypeGameCreated          EventType = "game_created"
	EventTypePlayerJoined         EventType = "player_joined"
	EventTypeStakePlaced          EventType = "stake_placed"
	EventTypeGameStatusChanged    EventType = "game_status_changed"
	EventTypePlayerActionRecorded EventType = "player_action_recorded"
)

// AllEventTypes lists every event type the bus carries
var AllEventTypes = []EventType{
	EventTypeUserCreated,
	EventTypeUserOnboarded,
	EventTypeGameCreated,
	EventTypePlayerJoined,
	EventTypeStakePlaced,
	EventTypeGameStatusChanged,
	EventTypePlayerActionRecorded,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// GameEvent is an event that belongs to a single game
type GameEvent interface {
	Event
	ForGame() int64
}

// UserCreatedEvent is emitted the first time a wallet connects
type UserCreatedEvent struct {
	UserID        int64  `json:"userId"`
	WalletAddress string `json:"walletAddress"`
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// UserOnboardedEvent is emitted when a user picks their username
type UserOnboardedEvent struct {
	UserID        int64  `json:"userId"`
	WalletAddress string `json:"walletAddress"`
	Username      string `json:"username"`
}

func (e UserOnboardedEvent) Type() EventType {
	return EventTypeUserOnboarded
}

// GameCreatedEvent is emitted when a new game opens
type GameCreatedEvent struct {
	GameID        int64           `json:"gameId"`
	Name          string          `json:"name"`
	OwnerID       int64           `json:"ownerId"`
	OwnerName     string          `json:"ownerName"`
	JoiningAmount decimal.Decimal `json:"joiningAmount"`
}

func (e GameCreatedEvent) Type() EventType {
	return EventTypeGameCreated
}

func (e GameCreatedEvent) ForGame() int64 {
	return e.GameID
}

// PlayerJoinedEvent is emitted when a user takes a player seat
type PlayerJoinedEvent struct {
	GameID        int64           `json:"gameId"`
	GameName      string          `json:"gameName"`
	UserID        int64           `json:"userId"`
	PlayerName    string          `json:"playerName"`
	JoiningAmount decimal.Decimal `json:"joiningAmount"`
	PlayerCount   int             `json:"playerCount"`
	TotalPool     decimal.Decimal `json:"totalPool"`
}

func (e PlayerJoinedEvent) Type() EventType {
	return EventTypePlayerJoined
}

func (e PlayerJoinedEvent) ForGame() int64 {
	return e.GameID
}

// StakePlacedEvent is emitted when a user stakes on a game
type StakePlacedEvent struct {
	GameID     int64               `json:"gameId"`
	UserID     int64               `json:"userId"`
	StakeID    int64               `json:"stakeId"`
	Amount     decimal.Decimal     `json:"amount"`
	Prediction *models.GameOutcome `json:"prediction,omitempty"`
	TotalPool  decimal.Decimal     `json:"totalPool"`
}

func (e StakePlacedEvent) Type() EventType {
	return EventTypeStakePlaced
}

func (e StakePlacedEvent) ForGame() int64 {
	return e.GameID
}

// GameStatusChangedEvent represents a game lifecycle transition
type GameStatusChangedEvent struct {
	GameID       int64               `json:"gameId"`
	GameName     string              `json:"gameName"`
	OldStatus    models.GameStatus   `json:"oldStatus"`
	NewStatus    models.GameStatus   `json:"newStatus"`
	FinalOutcome *models.GameOutcome `json:"finalOutcome,omitempty"`
	TotalPool    decimal.Decimal     `json:"totalPool"`
}

func (e GameStatusChangedEvent) Type() EventType {
	return EventTypeGameStatusChanged
}

func (e GameStatusChangedEvent) ForGame() int64 {
	return e.GameID
}

// PlayerActionRecordedEvent is emitted when a player submits or changes their choice.
// The action itself is not included so the opponent cannot read it off the feed.
type PlayerActionRecordedEvent struct {
	GameID int64 `json:"gameId"`
	UserID int64 `json:"userId"`
}

func (e PlayerActionRecordedEvent) Type() EventType {
	return EventTypePlayerActionRecorded
}

func (e PlayerActionRecordedEvent) ForGame() int64 {
	return e.GameID
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler for every event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow subscriber never blocks a request
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Queued event on transactional bus")
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush() {
	// Handlers outlive the request, so they get a fresh context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of queued events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
