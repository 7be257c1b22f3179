// Package vault encrypts channel credentials at rest with an AEAD cipher.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	vo "github.com/hatchery-inc/hatchery/internal/domain/channel/valueobjects"
)

const (
	AlgorithmAES256GCM         = "aes-256-gcm"
	AlgorithmXChaCha20Poly1305 = "xchacha20-poly1305"

	keySize = 32
)

// Vault holds the derived key; it is immutable and safe for concurrent use.
type Vault struct {
	key       [keySize]byte
	algorithm string
}

// New derives the key from secret: zero padded or truncated to 32 bytes.
// algorithm selects the cipher for new blobs; empty means aes-256-gcm.
func New(secret, algorithm string) (*Vault, error) {
	if secret == "" {
		return nil, cryptoErr("init", algorithm, ErrEmptySecret)
	}
	if algorithm == "" {
		algorithm = AlgorithmAES256GCM
	}
	if _, err := newAEAD(algorithm, make([]byte, keySize)); err != nil {
		return nil, cryptoErr("init", algorithm, err)
	}

	v := &Vault{algorithm: algorithm}
	copy(v.key[:], secret)
	return v, nil
}

func (v *Vault) Algorithm() string {
	return v.algorithm
}

func newAEAD(algorithm string, key []byte) (cipher.AEAD, error) {
	switch algorithm {
	case AlgorithmAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case AlgorithmXChaCha20Poly1305:
		return chacha20poly1305.NewX(key)
	}
	return nil, ErrUnknownAlgorithm
}

// Encrypt serialises plain as JSON and seals it with a fresh random nonce.
func (v *Vault) Encrypt(plain map[string]any) (vo.EncryptedBlob, error) {
	payload, err := json.Marshal(plain)
	if err != nil {
		return vo.EncryptedBlob{}, cryptoErr("encrypt", v.algorithm, ErrEncryptionFailed, err)
	}

	aead, err := newAEAD(v.algorithm, v.key[:])
	if err != nil {
		return vo.EncryptedBlob{}, cryptoErr("encrypt", v.algorithm, ErrEncryptionFailed, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return vo.EncryptedBlob{}, cryptoErr("encrypt", v.algorithm, ErrEncryptionFailed, err)
	}

	return vo.EncryptedBlob{
		IV:          base64.StdEncoding.EncodeToString(nonce),
		Ciphertext:  base64.StdEncoding.EncodeToString(aead.Seal(nil, nonce, payload, nil)),
		AlgorithmID: v.algorithm,
	}, nil
}

// Decrypt opens a blob produced by Encrypt with any supported algorithm.
// Numbers come back as float64, as with any JSON document.
func (v *Vault) Decrypt(blob vo.EncryptedBlob) (map[string]any, error) {
	alg := blob.AlgorithmID
	aead, err := newAEAD(alg, v.key[:])
	if err != nil {
		return nil, cryptoErr("decrypt", alg, ErrDecryptionFailed, err)
	}

	nonce, err := base64.StdEncoding.DecodeString(blob.IV)
	if err != nil {
		return nil, cryptoErr("decrypt", alg, ErrInvalidNonce, err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, cryptoErr("decrypt", alg, ErrInvalidNonce)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(blob.Ciphertext)
	if err != nil {
		return nil, cryptoErr("decrypt", alg, ErrInvalidCiphertext, err)
	}
	if len(ciphertext) < aead.Overhead() {
		return nil, cryptoErr("decrypt", alg, ErrInvalidCiphertext)
	}

	payload, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, cryptoErr("decrypt", alg, ErrDecryptionFailed, err)
	}

	var plain map[string]any
	if err := json.Unmarshal(payload, &plain); err != nil || plain == nil {
		return nil, cryptoErr("decrypt", alg, ErrDecryptionFailed, ErrInvalidPlaintextDoc)
	}
	return plain, nil
}
