package models

import (
	"regexp"
	"strings"
)

var walletAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsWalletAddress reports whether address is an EVM address: 0x followed by 40 hex characters
func IsWalletAddress(address string) bool {
	return walletAddressPattern.MatchString(address)
}

// CanonicalWalletAddress returns the lower-case form stored for an address
func CanonicalWalletAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
