// Package id generates Stripe-style public identifiers such as "inst_4fK2pQ9xLm3N".
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	DefaultLength = 12
)

const (
	PrefixInstance     = "inst"
	PrefixSubscription = "sub"
	PrefixCredential   = "chc"
)

// Generate returns a cryptographically random base62 string.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}

func GenerateWithPrefix(prefix string, length int) (string, error) {
	s, err := Generate(length)
	if err != nil {
		return "", err
	}
	return prefix + "_" + s, nil
}

func NewInstanceID() (string, error) {
	return GenerateWithPrefix(PrefixInstance, DefaultLength)
}

func NewSubscriptionID() (string, error) {
	return GenerateWithPrefix(PrefixSubscription, DefaultLength)
}

func NewCredentialID() (string, error) {
	return GenerateWithPrefix(PrefixCredential, DefaultLength)
}

// ValidatePrefix checks that prefixedID has the form "<expected>_<short id>".
func ValidatePrefix(prefixedID, expected string) error {
	prefix, short, ok := strings.Cut(prefixedID, "_")
	if !ok || short == "" {
		return fmt.Errorf("invalid prefixed ID format: %s", prefixedID)
	}
	if prefix != expected {
		return fmt.Errorf("invalid prefix: expected %s, got %s", expected, prefix)
	}
	return nil
}
