package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/result"
)

const (
	accessKeyVersion byte = 0x01
	DefaultLifetime       = 5 * time.Minute
)

// AccessKey signs room tokens. Its textual form is the base64 encoding of a
// version byte followed by the 32 byte Ed25519 seed.
type AccessKey struct {
	priv ed25519.PrivateKey
}

func NewAccessKey() (*AccessKey, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generate seed: %w", err)
	}
	return &AccessKey{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

func ParseAccessKey(s string) (*AccessKey, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("access key: %w", err)
	}
	if len(raw) != 1+ed25519.SeedSize || raw[0] != accessKeyVersion {
		return nil, fmt.Errorf("access key: unsupported format")
	}
	return &AccessKey{priv: ed25519.NewKeyFromSeed(raw[1:])}, nil
}

func (k *AccessKey) String() string {
	raw := append([]byte{accessKeyVersion}, k.priv.Seed()...)
	return base64.StdEncoding.EncodeToString(raw)
}

func (k *AccessKey) PublicKey() ed25519.PublicKey {
	return k.priv.Public().(ed25519.PublicKey)
}

// KeyID identifies the public half of the key; gateways use it to pick the
// verification key from the kid header.
func (k *AccessKey) KeyID() string {
	sum := sha512.Sum512(k.PublicKey())
	raw := append([]byte{accessKeyVersion}, sum[:8]...)
	return base64.StdEncoding.EncodeToString(raw)
}

type Options struct {
	CustomerID domain.CustomerID
	Lifetime   time.Duration
	Now        func() time.Time
}

// Generate signs a token granting userID access to roomID.
func (k *AccessKey) Generate(roomID domain.RoomID, userID domain.UserID, opts Options) (string, error) {
	if roomID == "" || userID == "" {
		return "", fmt.Errorf("%w: room and user id are required", result.ErrInvalidToken)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	lifetime := opts.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	issued := now()
	claims := Claims{
		UserID:     string(userID),
		RoomID:     string(roomID),
		CustomerID: string(opts.CustomerID),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(lifetime)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	tok.Header["kid"] = k.KeyID()
	signed, err := tok.SignedString(k.priv)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature and time claims of raw against this key.
func (k *AccessKey) Validate(raw string) (*Token, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return k.PublicKey(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", result.ErrInvalidToken, err)
	}
	if c.UserID == "" || c.RoomID == "" {
		return nil, fmt.Errorf("%w: missing uid or rid claim", result.ErrInvalidToken)
	}
	return &Token{raw: raw, claims: c}, nil
}
