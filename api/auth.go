package api

import (
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
)

const walletClaim = "wallet"

// issueToken creates a session token for a connected wallet
func (s *Server) issueToken(wallet string) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.sessionTTL)

	_, tokenString, err := s.tokenAuth.Encode(map[string]interface{}{
		walletClaim: wallet,
		"iat":       time.Now().Unix(),
		"exp":       expiresAt.Unix(),
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// authenticator rejects requests without a valid session token.
// It must run after jwtauth.Verifier.
func (s *Server) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			respondError(w, http.StatusUnauthorized, "connect your wallet first")
			return
		}
		if wallet, _ := claims[walletClaim].(string); wallet == "" {
			respondError(w, http.StatusUnauthorized, "session token has no wallet")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// callerWallet returns the wallet of the authenticated caller
func callerWallet(r *http.Request) string {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return ""
	}
	wallet, _ := claims[walletClaim].(string)
	return wallet
}
