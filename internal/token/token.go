// Package token parses room tokens and signs new ones from an access key.
package token

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/result"
)

// Claims is the payload of a room token.
type Claims struct {
	UserID     string `json:"uid"`
	RoomID     string `json:"rid"`
	CustomerID string `json:"cid,omitempty"`
	jwt.RegisteredClaims
}

// Token is a parsed, unverified room token. The signature is checked by the
// gateway; clients only need the identifiers.
type Token struct {
	raw    string
	claims Claims
}

var segmentParser = jwt.NewParser()

// Parse extracts the claims of a header.payload.signature token.
func Parse(raw string) (*Token, error) {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: expected at least 2 segments, got %d", result.ErrMalformedToken, len(parts))
	}
	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", result.ErrMalformedToken, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(payload), []byte("{")) {
		return nil, fmt.Errorf("%w: payload is not a json object", result.ErrMalformedToken)
	}
	var c Claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", result.ErrMalformedToken, err)
	}
	if c.UserID == "" || c.RoomID == "" {
		return nil, fmt.Errorf("%w: missing uid or rid claim", result.ErrInvalidToken)
	}
	return &Token{raw: raw, claims: c}, nil
}

func (t *Token) String() string { return t.raw }

func (t *Token) RoomID() domain.RoomID { return domain.RoomID(t.claims.RoomID) }

func (t *Token) UserID() domain.UserID { return domain.UserID(t.claims.UserID) }

func (t *Token) CustomerID() domain.CustomerID { return domain.CustomerID(t.claims.CustomerID) }

func (t *Token) Claims() Claims { return t.claims }

// ExpiresAt returns the zero time when the token carries no exp claim.
func (t *Token) ExpiresAt() time.Time {
	if t.claims.ExpiresAt == nil {
		return time.Time{}
	}
	return t.claims.ExpiresAt.Time
}
