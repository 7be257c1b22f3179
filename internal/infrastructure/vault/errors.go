package vault

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySecret         = errors.New("vault secret is empty")
	ErrUnknownAlgorithm    = errors.New("unknown encryption algorithm")
	ErrEncryptionFailed    = errors.New("encryption failed")
	ErrDecryptionFailed    = errors.New("decryption failed")
	ErrInvalidCiphertext   = errors.New("invalid ciphertext format")
	ErrInvalidNonce        = errors.New("invalid nonce")
	ErrInvalidPlaintextDoc = errors.New("decrypted payload is not a JSON object")
)

// CryptoError is returned by every Vault operation. Callers treat it as fatal.
type CryptoError struct {
	Op        string
	Algorithm string
	Err       error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("vault %s (%s): %v", e.Op, e.Algorithm, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

func cryptoErr(op, algorithm string, errs ...error) error {
	return &CryptoError{Op: op, Algorithm: algorithm, Err: errors.Join(errs...)}
}
