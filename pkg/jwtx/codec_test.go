package jwtx

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testKeyB64() string {
	return base64.StdEncoding.EncodeToString([]byte("this-is-a-test-signing-key-32byte"))
}

func TestNewCodecRejectsBadSecrets(t *testing.T) {
	t.Parallel()

	_, err := NewCodec("")
	require.ErrorIs(t, err, ErrEmptySecret)

	_, err = NewCodec("!!!not-base64!!!")
	require.ErrorIs(t, err, ErrInvalidSecret)
}

func TestIssueValidateRoundTrip(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(testKeyB64())
	require.NoError(t, err)

	for _, kind := range []Kind{KindAccess, KindRefresh} {
		token, err := codec.Issue("a@x.com", "USER", kind)
		require.NoError(t, err)
		require.NotEmpty(t, token)
		require.True(t, codec.Validate(token))

		subject, err := codec.Subject(token)
		require.NoError(t, err)
		require.Equal(t, "a@x.com", subject)

		claims, err := codec.Claims(token)
		require.NoError(t, err)
		require.Equal(t, "USER", claims.Role)
	}
}

func TestExpiryBoundaries(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := issued

	codec, err := NewCodec(testKeyB64(), WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	access, err := codec.Issue("a@x.com", "USER", KindAccess)
	require.NoError(t, err)
	refresh, err := codec.Issue("a@x.com", "USER", KindRefresh)
	require.NoError(t, err)

	// Access: valid just short of 24h, invalid just past it.
	now = issued.Add(24*time.Hour - time.Minute)
	require.True(t, codec.Validate(access))
	now = issued.Add(24*time.Hour + time.Minute)
	require.False(t, codec.Validate(access))

	// Refresh: same shape at 48h.
	now = issued.Add(48*time.Hour - time.Minute)
	require.True(t, codec.Validate(refresh))
	now = issued.Add(48*time.Hour + time.Minute)
	require.False(t, codec.Validate(refresh))
}

func TestTamperedTokensAreRejected(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(testKeyB64())
	require.NoError(t, err)

	token, err := codec.Issue("a@x.com", "ADMIN", KindAccess)
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		mutated := []byte(token)
		// Substitute a character that differs in the high sextet bits, so the
		// change survives base64 decoding even in a padded tail position.
		switch mutated[i] {
		case 'A', 'B', 'C', 'D':
			mutated[i] = 'Q'
		default:
			mutated[i] = 'A'
		}
		require.False(t, codec.Validate(string(mutated)), "flip at %d accepted", i)
	}
}

func TestTokensFromDifferentKeyAreRejected(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(testKeyB64())
	require.NoError(t, err)

	other, err := NewCodec(base64.StdEncoding.EncodeToString([]byte("a-completely-different-signing-key")))
	require.NoError(t, err)

	token, err := other.Issue("a@x.com", "USER", KindAccess)
	require.NoError(t, err)

	require.False(t, codec.Validate(token))

	_, err = codec.Subject(token)
	require.Error(t, err)
}

func TestSubjectFailsOnGarbage(t *testing.T) {
	t.Parallel()

	codec, err := NewCodec(testKeyB64())
	require.NoError(t, err)

	_, err = codec.Subject("not.a.jwt")
	require.Error(t, err)
	require.False(t, codec.Validate(""))
}
