package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reflector/events"
	"reflector/models"
	"reflector/service"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLiveFeed(t *testing.T) {
	ts := newTestServer(t)
	ts.games.On("GetGame", mock.Anything, int64(42)).Return(&models.GameDetail{Game: &models.Game{ID: 42}}, nil)

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/games/42/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	hub := ts.server.hub
	require.Eventually(t, func() bool { return hub.Subscribers(42) == 1 }, 2*time.Second, 10*time.Millisecond)

	// Events for other games and user events are not forwarded
	hub.HandleEvent(context.Background(), events.PlayerJoinedEvent{GameID: 7})
	hub.HandleEvent(context.Background(), events.UserCreatedEvent{UserID: 1})
	hub.HandleEvent(context.Background(), events.StakePlacedEvent{
		GameID:    42,
		StakeID:   3,
		Amount:    decimal.RequireFromString("0.5"),
		TotalPool: decimal.RequireFromString("1.5"),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame struct {
		Type    string                 `json:"type"`
		GameID  int64                  `json:"gameId"`
		Payload map[string]interface{} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, string(events.EventTypeStakePlaced), frame.Type)
	assert.Equal(t, int64(42), frame.GameID)
	assert.Equal(t, "1.5", frame.Payload["totalPool"])

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Subscribers(42) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestLiveFeed_UnknownGame(t *testing.T) {
	ts := newTestServer(t)
	ts.games.On("GetGame", mock.Anything, int64(404)).Return(nil, service.ErrGameNotFound)

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/games/404/live"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHub_DropsSlowClients(t *testing.T) {
	hub := NewHub(nil)
	client := &liveClient{gameID: 1, send: make(chan []byte, 1)}
	hub.add(client)

	hub.broadcast(1, []byte("a"))
	hub.broadcast(1, []byte("b"))

	assert.Equal(t, 0, hub.Subscribers(1))
	_, open := <-client.send
	assert.True(t, open)
	_, open = <-client.send
	assert.False(t, open)
}
