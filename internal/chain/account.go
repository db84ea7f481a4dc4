package chain

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"
)

// aip80Prefix marks an AIP-80 formatted Ed25519 private key.
const aip80Prefix = "ed25519-priv-"

// ed25519Scheme is the single-signer authentication scheme byte.
const ed25519Scheme = 0x00

// ErrInvalidPrivateKey is returned when a private key cannot be decoded.
var ErrInvalidPrivateKey = errors.New("invalid private key")

// Account is a single-key Ed25519 account.
type Account struct {
	Address    string // 0x-prefixed, 64 hex digits
	PublicKey  ed25519.PublicKey
	privateKey ed25519.PrivateKey
}

// Sign signs message with the account key.
func (a *Account) Sign(message []byte) []byte {
	return ed25519.Sign(a.privateKey, message)
}

// PublicKeyHex returns the 0x-prefixed public key.
func (a *Account) PublicKeyHex() string {
	return "0x" + hex.EncodeToString(a.PublicKey)
}

// DeriveAccount decodes an Ed25519 private key and derives its account.
// Accepted encodings: AIP-80 ("ed25519-priv-0x..."), hex with or without 0x,
// and base58 of either the 32-byte seed or the 64-byte seed||public key pair.
func DeriveAccount(privateKey string) (*Account, error) {
	seed, err := decodeSeed(privateKey)
	if err != nil {
		return nil, err
	}

	pub, err := publicKeyFromSeed(seed)
	if err != nil {
		return nil, err
	}

	return &Account{
		Address:    AuthKey(pub),
		PublicKey:  pub,
		privateKey: ed25519.NewKeyFromSeed(seed),
	}, nil
}

// AuthKey returns the address of a fresh single-key account:
// SHA3-256(public key || scheme byte).
func AuthKey(pub ed25519.PublicKey) string {
	h := sha3.New256()
	h.Write(pub)
	h.Write([]byte{ed25519Scheme})
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

func decodeSeed(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPrivateKey)
	}
	s = strings.TrimPrefix(s, aip80Prefix)

	if h, ok := strings.CutPrefix(s, "0x"); ok {
		return decodeHexSeed(h)
	}
	if len(s) == 2*ed25519.SeedSize {
		if seed, err := decodeHexSeed(s); err == nil {
			return seed, nil
		}
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: not hex or base58", ErrInvalidPrivateKey)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return raw, nil
	case ed25519.PrivateKeySize:
		return raw[:ed25519.SeedSize], nil
	default:
		return nil, fmt.Errorf("%w: decoded %d bytes", ErrInvalidPrivateKey, len(raw))
	}
}

func decodeHexSeed(h string) ([]byte, error) {
	seed, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPrivateKey, ed25519.SeedSize, len(seed))
	}
	return seed, nil
}

// publicKeyFromSeed computes A = s*B where s is the clamped low half of SHA-512(seed).
func publicKeyFromSeed(seed []byte) (ed25519.PublicKey, error) {
	digest := sha512.Sum512(seed)
	s, err := edwards25519.NewScalar().SetBytesWithClamping(digest[:32])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	point := new(edwards25519.Point).ScalarBaseMult(s)
	return ed25519.PublicKey(point.Bytes()), nil
}
