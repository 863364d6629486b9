package models

import (
	"time"
)

// User represents a wallet-backed account
type User struct {
	ID            int64     `db:"id" json:"id"`
	WalletAddress string    `db:"wallet_address" json:"walletAddress"`
	Username      *string   `db:"username" json:"username"`
	IsOnboarded   bool      `db:"is_onboarded" json:"isOnboarded"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// DisplayName returns the username when set, otherwise a shortened wallet address
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	if len(u.WalletAddress) > 10 {
		return u.WalletAddress[:6] + "…" + u.WalletAddress[len(u.WalletAddress)-4:]
	}
	return u.WalletAddress
}

// UserDetail is a user together with every game they own or take part in
type UserDetail struct {
	User        *User         `json:"user"`
	OwnedGames  []*Game       `json:"ownedGames"`
	PlayerGames []*PlayerGame `json:"playerGames"`
	StakerGames []*StakerGame `json:"stakerGames"`
}
