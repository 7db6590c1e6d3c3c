package result

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_Value(t *testing.T) {
	v, err := Check(42)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v)
}

func TestCheck_KnownCodes(t *testing.T) {
	_, err := Check(CodeInvalidToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrTransport)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, CodeInvalidToken, te.Code)
	assert.Equal(t, "invalid token", te.Message)

	_, err = Check(CodeInvalidHandle)
	assert.ErrorIs(t, err, ErrInvalidMediaHandle)

	_, err = Check(CodeServerRejected)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestCheck_UnknownCode(t *testing.T) {
	_, err := Check(errorBit | 0xfff)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown error")
}

func TestFromCode_Message(t *testing.T) {
	err := FromCode(CodeServerRejected, "room is full")
	assert.Equal(t, "transport: room is full (0x80000009)", err.Error())
}

func TestTransport_Wrap(t *testing.T) {
	assert.NoError(t, Transport(nil))

	err := Transport(errors.New("boom"))
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "transport: boom", err.Error())

	coded := FromCode(CodeTimeout, "")
	assert.Same(t, coded, Transport(coded))

	wrappedCoded := fmt.Errorf("join: %w", coded)
	assert.Equal(t, wrappedCoded, Transport(wrappedCoded))
}

func TestMalformedIsInvalidToken(t *testing.T) {
	assert.ErrorIs(t, ErrMalformedToken, ErrInvalidToken)
}
