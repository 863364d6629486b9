package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"unicode"
	"unicode/utf8"

	"reflector/service"

	"github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

// CreateResponse writes rsp as JSON with rsp.Code as the status
func CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.WithError(err).Warn("Failed to write response")
	}
}

func respondOK(w http.ResponseWriter, code int, message string, data interface{}) {
	CreateResponse(w, Response{
		Message: message,
		Code:    code,
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, code int, message string) {
	CreateResponse(w, Response{
		Message: http.StatusText(code),
		Code:    code,
		Error:   displayMessage(message),
	})
}

// displayMessage turns a Go error string into the sentence shown to users: "game not found" -> "Game not found"
func displayMessage(message string) string {
	r, size := utf8.DecodeRuneInString(message)
	if r == utf8.RuneError {
		return message
	}
	return string(unicode.ToUpper(r)) + message[size:]
}

// respondServiceError maps service errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrGameNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotGameOwner):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAlreadyOnboarded),
		errors.Is(err, service.ErrGameNotJoinable),
		errors.Is(err, service.ErrGameNotStakeable),
		errors.Is(err, service.ErrGameFull),
		errors.Is(err, service.ErrAlreadyPlayer),
		errors.Is(err, service.ErrAlreadyStaker),
		errors.Is(err, service.ErrGameNotInProgress),
		errors.Is(err, service.ErrNotPlayer),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrNotEnoughPlayers),
		errors.Is(err, service.ErrOutcomeRequired):
		respondError(w, http.StatusConflict, err.Error())
	default:
		log.WithFields(log.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"requestID": middleware.GetReqID(r.Context()),
		}).WithError(err).Error("Request failed")
		respondError(w, http.StatusInternalServerError, "something went wrong, please try again")
	}
}

// decodeJSON reads a JSON request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
