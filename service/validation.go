package service

import (
	"strings"
	"unicode/utf8"

	"reflector/models"

	"github.com/shopspring/decimal"
)

const (
	// MaxUsernameLength bounds the onboarding username
	MaxUsernameLength = 32

	// MaxGameNameLength bounds the game name
	MaxGameNameLength = 100

	// MaxDescriptionLength bounds the optional game description
	MaxDescriptionLength = 1000

	// AmountScale is the number of fractional digits stored for amounts (wei precision)
	AmountScale = 18

	// maxAmountIntegerDigits keeps amounts inside NUMERIC(38, 18)
	maxAmountIntegerDigits = 20
)

// NormalizeWalletAddress validates an EVM address and returns its lower-case form
func NormalizeWalletAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", newValidationError("walletAddress", "wallet address is required")
	}
	if !models.IsWalletAddress(address) {
		return "", newValidationError("walletAddress", "wallet address must be 0x followed by 40 hex characters")
	}
	return models.CanonicalWalletAddress(address), nil
}

// validateUsername trims the username and checks its length
func validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", newValidationError("username", "username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return "", newValidationError("username", "username must be at most 32 characters")
	}
	return username, nil
}

// validateGameInput trims name and description and checks their lengths
func validateGameInput(name string, description *string) (string, *string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, newValidationError("name", "game name is required")
	}
	if utf8.RuneCountInString(name) > MaxGameNameLength {
		return "", nil, newValidationError("name", "game name must be at most 100 characters")
	}

	if description == nil {
		return name, nil, nil
	}
	trimmed := strings.TrimSpace(*description)
	if trimmed == "" {
		return name, nil, nil
	}
	if utf8.RuneCountInString(trimmed) > MaxDescriptionLength {
		return "", nil, newValidationError("description", "description must be at most 1000 characters")
	}
	return name, &trimmed, nil
}

// validateAmount checks that an amount is positive and fits NUMERIC(38, 18)
func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return newValidationError(field, field+" must be greater than zero")
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return newValidationError(field, field+" has more than 18 decimal places")
	}
	if len(amount.Truncate(0).String()) > maxAmountIntegerDigits {
		return newValidationError(field, field+" is too large")
	}
	return nil
}
