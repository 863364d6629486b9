package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reflector/contract"
	"reflector/models"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type connectRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type connectResponse struct {
	User      *models.User `json:"user"`
	Created   bool         `json:"created"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type onboardRequest struct {
	Username string `json:"username"`
}

type createGameRequest struct {
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	JoiningAmount decimal.Decimal `json:"joiningAmount"`
}

type joinPlayerRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type joinStakerRequest struct {
	Amount     decimal.Decimal     `json:"amount"`
	Prediction *models.GameOutcome `json:"prediction"`
}

type updateStatusRequest struct {
	Status       models.GameStatus   `json:"status"`
	FinalOutcome *models.GameOutcome `json:"finalOutcome"`
}

type actionRequest struct {
	Action models.PlayerAction `json:"action"`
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		log.WithError(err).Warn("Health check failed to reach database")
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respondOK(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
}

func (s *Server) handleContract(w http.ResponseWriter, r *http.Request) {
	deployment, err := s.contracts.Get()
	if errors.Is(err, contract.ErrNotDeployed) {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		log.WithError(err).Error("Contract artifacts are invalid")
		respondError(w, http.StatusInternalServerError, "contract artifacts are invalid")
		return
	}
	respondOK(w, http.StatusOK, "contract", deployment)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, created, err := s.users.ConnectWallet(r.Context(), req.WalletAddress)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	token, expiresAt, err := s.issueToken(user.WalletAddress)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	code, message := http.StatusOK, "wallet connected"
	if created {
		code, message = http.StatusCreated, "user created"
	}
	respondOK(w, code, message, connectResponse{
		User:      user,
		Created:   created,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "users", users)
}

func (s *Server) handleGetUserByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	user, err := s.users.GetUserByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "user", user)
}

func (s *Server) handleGetUserByWallet(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetUserByWallet(r.Context(), chi.URLParam(r, "wallet"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "user", user)
}

func (s *Server) handleGetStakerGames(w http.ResponseWriter, r *http.Request) {
	stakerGames, err := s.stakes.GetStakerGames(r.Context(), chi.URLParam(r, "wallet"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "staker games", stakerGames)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetUserByWallet(r.Context(), callerWallet(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "user", user)
}

func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.users.OnboardUser(r.Context(), callerWallet(r), req.Username)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "user onboarded", user)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	var status *models.GameStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := models.GameStatus(strings.ToUpper(raw))
		status = &st
	}

	games, err := s.games.ListGames(r.Context(), status)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "games", games)
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	game, err := s.games.CreateGame(r.Context(), callerWallet(r), req.Name, req.Description, req.JoiningAmount)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "game created", game)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	game, err := s.games.GetGame(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "game", game)
}

func (s *Server) handleGetPlayers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	players, err := s.games.GetPlayers(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "players", players)
}

func (s *Server) handleGetStakes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	stakes, err := s.stakes.GetStakes(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "stakes", stakes)
}

func (s *Server) handleJoinAsPlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req joinPlayerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	player, err := s.games.JoinAsPlayer(r.Context(), id, callerWallet(r), req.Amount)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "joined game as player", player)
}

func (s *Server) handleJoinAsStaker(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req joinStakerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.stakes.JoinAsStaker(r.Context(), id, callerWallet(r), req.Amount, req.Prediction)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "joined game as staker", result)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	game, err := s.games.UpdateGameStatus(r.Context(), id, callerWallet(r), req.Status, req.FinalOutcome)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "game status updated", game)
}

func (s *Server) handleRecordAction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req actionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	player, err := s.games.RecordPlayerAction(r.Context(), id, callerWallet(r), req.Action)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "action recorded", player)
}
