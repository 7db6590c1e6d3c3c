package token

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/result"
)

func segment(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestParse_RoundTrip(t *testing.T) {
	raw := segment(`{"alg":"EdDSA"}`) + "." + segment(`{"uid":"alice","rid":"room42"}`) + ".c2ln"

	tok, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("room42"), tok.RoomID())
	assert.Equal(t, domain.UserID("alice"), tok.UserID())
	assert.Equal(t, domain.CustomerID(""), tok.CustomerID())
	assert.True(t, tok.ExpiresAt().IsZero())
	assert.Equal(t, raw, tok.String())
}

func TestParse_TwoSegments(t *testing.T) {
	tok, err := Parse(segment(`{}`) + "." + segment(`{"uid":"bob","rid":"r","cid":"acme"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerID("acme"), tok.CustomerID())
}

func TestParse_Malformed(t *testing.T) {
	for name, raw := range map[string]string{
		"no dot":       "onlyonepart",
		"empty":        "",
		"bad base64":   "a.!!!.c",
		"padded":       "a." + base64.URLEncoding.EncodeToString([]byte(`{"uid":"alice","rid":"r"}`)) + ".c",
		"not json":     "a." + segment("hello") + ".c",
		"json array":   "a." + segment(`["uid","rid"]`) + ".c",
		"json literal": "a." + segment(`null`) + ".c",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, result.ErrMalformedToken)
			assert.ErrorIs(t, err, result.ErrInvalidToken)
		})
	}
}

func TestParse_MissingClaims(t *testing.T) {
	_, err := Parse("a." + segment(`{"uid":"alice"}`) + ".c")
	require.Error(t, err)
	assert.ErrorIs(t, err, result.ErrInvalidToken)
	assert.NotErrorIs(t, err, result.ErrMalformedToken)
}

func TestAccessKey_GenerateAndValidate(t *testing.T) {
	key, err := NewAccessKey()
	require.NoError(t, err)

	now := time.Now()
	raw, err := key.Generate("room42", "alice", Options{CustomerID: "acme", Now: func() time.Time { return now }})
	require.NoError(t, err)
	assert.Len(t, strings.Split(raw, "."), 3)

	parsed, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("room42"), parsed.RoomID())
	assert.Equal(t, domain.UserID("alice"), parsed.UserID())
	assert.Equal(t, domain.CustomerID("acme"), parsed.CustomerID())
	assert.WithinDuration(t, now.Add(DefaultLifetime), parsed.ExpiresAt(), time.Second)

	validated, err := key.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, parsed.Claims().UserID, validated.Claims().UserID)

	other, err := NewAccessKey()
	require.NoError(t, err)
	_, err = other.Validate(raw)
	assert.ErrorIs(t, err, result.ErrInvalidToken)
}

func TestAccessKey_StringRoundTrip(t *testing.T) {
	key, err := NewAccessKey()
	require.NoError(t, err)

	again, err := ParseAccessKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), again.PublicKey())
	assert.Equal(t, key.KeyID(), again.KeyID())

	_, err = ParseAccessKey("not base64!")
	assert.Error(t, err)
	_, err = ParseAccessKey(base64.StdEncoding.EncodeToString([]byte{0x02, 1, 2, 3}))
	assert.Error(t, err)
}

func TestAccessKey_Expired(t *testing.T) {
	key, err := NewAccessKey()
	require.NoError(t, err)
	raw, err := key.Generate("r", "u", Options{
		Lifetime: time.Minute,
		Now:      func() time.Time { return time.Now().Add(-time.Hour) },
	})
	require.NoError(t, err)
	_, err = key.Validate(raw)
	assert.ErrorIs(t, err, result.ErrInvalidToken)
}

func TestAccessKey_GenerateRequiresIDs(t *testing.T) {
	key, err := NewAccessKey()
	require.NoError(t, err)
	_, err = key.Generate("", "u", Options{})
	assert.ErrorIs(t, err, result.ErrInvalidToken)
}
