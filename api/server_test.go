package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reflector/config"
	"reflector/contract"
	"reflector/models"
	"reflector/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testWallet = "0x1111111111111111111111111111111111111111"

type testServer struct {
	server    *Server
	handler   http.Handler
	users     *MockUserService
	games     *MockGameService
	stakes    *MockStakeService
	contracts *MockContractProvider
	db        *MockPinger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:   "test-secret",
		SessionTTL:  time.Hour,
		CORSOrigins: []string{"*"},
	}
	ts := &testServer{
		users:     new(MockUserService),
		games:     new(MockGameService),
		stakes:    new(MockStakeService),
		contracts: new(MockContractProvider),
		db:        new(MockPinger),
	}
	ts.server = NewServer(cfg, ts.users, ts.games, ts.stakes, ts.contracts, ts.db, NewHub(cfg.CORSOrigins))
	ts.handler = ts.server.Router()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var rsp Response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp), rec.Body.String())
	}
	return rec, rsp
}

func (ts *testServer) token(t *testing.T, wallet string) string {
	t.Helper()
	token, _, err := ts.server.issueToken(wallet)
	require.NoError(t, err)
	return token
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	ts.db.On("Ping", mock.Anything).Return(nil).Once()

	rec, rsp := ts.do(t, http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, rsp.Code)

	ts.db.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()

	rec, rsp = ts.do(t, http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Database unavailable", rsp.Error)
}

func TestContract(t *testing.T) {
	ts := newTestServer(t)
	ts.contracts.On("Get").Return(nil, fmt.Errorf("%w: TopG.json is missing", contract.ErrNotDeployed)).Once()

	rec, _ := ts.do(t, http.MethodGet, "/v1/contract", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ts.contracts.On("Get").Return(&contract.Deployment{
		Name:    "TopG",
		Address: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		ABI:     json.RawMessage(`[]`),
	}, nil).Once()

	rec, rsp := ts.do(t, http.MethodGet, "/v1/contract", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	data := rsp.Data.(map[string]interface{})
	assert.Equal(t, "TopG", data["name"])
}

func TestConnectThenOnboard(t *testing.T) {
	ts := newTestServer(t)

	user := &models.User{ID: 1, WalletAddress: testWallet}
	ts.users.On("ConnectWallet", mock.Anything, testWallet).Return(user, true, nil)

	rec, rsp := ts.do(t, http.MethodPost, "/v1/auth/connect", "", map[string]string{"walletAddress": testWallet})
	require.Equal(t, http.StatusCreated, rec.Code)

	data := rsp.Data.(map[string]interface{})
	assert.Equal(t, true, data["created"])
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	onboarded := &models.User{ID: 1, WalletAddress: testWallet, IsOnboarded: true}
	ts.users.On("OnboardUser", mock.Anything, testWallet, "alice").Return(onboarded, nil)

	rec, rsp = ts.do(t, http.MethodPost, "/v1/me/onboard", token, map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user onboarded", rsp.Message)

	ts.users.AssertExpectations(t)
}

func TestSecuredRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t)

	rec, rsp := ts.do(t, http.MethodPost, "/v1/games", "", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Connect your wallet first", rsp.Error)

	rec, _ = ts.do(t, http.MethodPost, "/v1/games", "not-a-jwt", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts.server.sessionTTL = -time.Minute
	expired := ts.token(t, testWallet)
	rec, _ = ts.do(t, http.MethodPost, "/v1/games", expired, map[string]string{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts.games.AssertNotCalled(t, "CreateGame", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateGame(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, testWallet)

	game := &models.Game{ID: 5, Name: "Match A", JoiningAmount: decimal.RequireFromString("0.05"), Status: models.GameStatusPending}
	ts.games.On("CreateGame", mock.Anything, testWallet, "Match A", (*string)(nil), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("0.05"))
	})).Return(game, nil)

	rec, rsp := ts.do(t, http.MethodPost, "/v1/games", token, map[string]interface{}{
		"name":          "Match A",
		"joiningAmount": "0.05",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	data := rsp.Data.(map[string]interface{})
	assert.Equal(t, "0.05", data["joiningAmount"])
	assert.Equal(t, "PENDING", data["status"])
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"validation", &service.ValidationError{Field: "amount", Message: "amount must be greater than zero"}, http.StatusBadRequest, "Amount must be greater than zero"},
		{"not found", service.ErrGameNotFound, http.StatusNotFound, "Game not found"},
		{"full", service.ErrGameFull, http.StatusConflict, "Game already has maximum number of players"},
		{"already joined", service.ErrAlreadyPlayer, http.StatusConflict, "You have already joined this game as a player"},
		{"not open", service.ErrGameNotJoinable, http.StatusConflict, "Game is not open for joining"},
		{"unexpected", errors.New("pq: connection reset"), http.StatusInternalServerError, "Something went wrong, please try again"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			token := ts.token(t, testWallet)

			ts.games.On("JoinAsPlayer", mock.Anything, int64(7), testWallet, mock.Anything).Return(nil, tt.err)

			rec, rsp := ts.do(t, http.MethodPost, "/v1/games/7/players", token, map[string]string{"amount": "0.05"})
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, rsp.Error)
		})
	}
}

func TestUpdateStatusForbidden(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, testWallet)

	outcome := models.GameOutcomeShareShare
	ts.games.On("UpdateGameStatus", mock.Anything, int64(3), testWallet, models.GameStatusCompleted, &outcome).
		Return(nil, service.ErrNotGameOwner)

	rec, _ := ts.do(t, http.MethodPost, "/v1/games/3/status", token, map[string]string{
		"status":       "COMPLETED",
		"finalOutcome": "SHARE_SHARE",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	ts.games.AssertExpectations(t)
}

func TestRecordAction(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, testWallet)

	ts.games.On("RecordPlayerAction", mock.Anything, int64(3), testWallet, models.PlayerActionGrab).
		Return(&models.PlayerGame{ID: 1, GameID: 3}, nil)

	rec, _ := ts.do(t, http.MethodPost, "/v1/games/3/action", token, map[string]string{"action": "GRAB"})
	assert.Equal(t, http.StatusOK, rec.Code)
	ts.games.AssertExpectations(t)
}

func TestJoinAsStaker(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, testWallet)

	result := &models.StakeResult{
		StakerGame: &models.StakerGame{ID: 1, GameID: 3},
		Stake:      &models.Stake{ID: 2, GameID: 3, Amount: decimal.RequireFromString("1.5")},
	}
	ts.stakes.On("JoinAsStaker", mock.Anything, int64(3), testWallet, mock.Anything, (*models.GameOutcome)(nil)).Return(result, nil)

	rec, rsp := ts.do(t, http.MethodPost, "/v1/games/3/stakes", token, map[string]interface{}{"amount": 1.5})
	require.Equal(t, http.StatusCreated, rec.Code)
	stake := rsp.Data.(map[string]interface{})["stake"].(map[string]interface{})
	assert.Equal(t, "1.5", stake["amount"])
}

func TestPublicReads(t *testing.T) {
	ts := newTestServer(t)

	pending := models.GameStatusPending
	ts.games.On("ListGames", mock.Anything, &pending).Return([]*models.GameDetail{}, nil)
	ts.games.On("GetGame", mock.Anything, int64(9)).Return(nil, service.ErrGameNotFound)
	ts.users.On("GetUserByID", mock.Anything, int64(4)).Return(&models.UserDetail{User: &models.User{ID: 4}}, nil)
	ts.users.On("GetUserByWallet", mock.Anything, testWallet).Return(&models.UserDetail{User: &models.User{ID: 4}}, nil)
	ts.stakes.On("GetStakerGames", mock.Anything, testWallet).Return([]*models.StakerGame{}, nil)
	ts.stakes.On("GetStakes", mock.Anything, int64(9)).Return([]*models.StakeWithUser{}, nil)
	ts.games.On("GetPlayers", mock.Anything, int64(9)).Return([]*models.PlayerWithUser{}, nil)
	ts.users.On("ListUsers", mock.Anything).Return([]*models.User{}, nil)

	tests := []struct {
		path     string
		wantCode int
	}{
		{"/v1/games?status=pending", http.StatusOK},
		{"/v1/games/9", http.StatusNotFound},
		{"/v1/games/abc", http.StatusBadRequest},
		{"/v1/games/9/players", http.StatusOK},
		{"/v1/games/9/stakes", http.StatusOK},
		{"/v1/users", http.StatusOK},
		{"/v1/users/id/4", http.StatusOK},
		{"/v1/users/" + testWallet, http.StatusOK},
		{"/v1/users/" + testWallet + "/stakes", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(strings.TrimPrefix(tt.path, "/v1/"), func(t *testing.T) {
			rec, _ := ts.do(t, http.MethodGet, tt.path, "", nil)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestInvalidBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/connect", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.users.AssertNotCalled(t, "ConnectWallet", mock.Anything, mock.Anything)
}

func TestDisplayMessage(t *testing.T) {
	assert.Equal(t, "Game not found", displayMessage("game not found"))
	assert.Equal(t, "You have already joined this game as a player", displayMessage(service.ErrAlreadyPlayer.Error()))
	assert.Equal(t, "Already capitalized", displayMessage("Already capitalized"))
	assert.Equal(t, "", displayMessage(""))
}
