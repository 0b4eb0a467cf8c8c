package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ID prefixes, one per entity table.
const (
	PrefixAccount      = "acc"
	PrefixService      = "svc"
	PrefixCategory     = "cat"
	PrefixCompany      = "cmp"
	PrefixBooking      = "bkg"
	PrefixTransaction  = "txn"
	PrefixReview       = "rev"
	PrefixDispute      = "dsp"
	PrefixNotification = "ntf"
	PrefixSupport      = "sup"
)

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 10

	result := make([]byte, length)
	for i := range result {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[num.Int64()]
	}

	return fmt.Sprintf("%s-%s", prefix, string(result))
}

// HasPrefix reports whether id was generated for the given prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"-")
}

// NormalizeUsername trims and lowercases; usernames are case-insensitive.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ToMinorUnits converts a two-decimal price into integer minor units (50.00 -> 5000).
func ToMinorUnits(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}

// FormatMinorUnits renders minor units as a fixed two-decimal string (5000 -> "50.00").
func FormatMinorUnits(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}
