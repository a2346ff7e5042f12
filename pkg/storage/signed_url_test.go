package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("upload-1", "payments/p-1/receipt.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	id, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "upload-1", id)
	require.Equal(t, "payments/p-1/receipt.pdf", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	signer.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	token, _, err := signer.Generate("export-1", "students.csv")
	require.NoError(t, err)
	signer.now = time.Now

	_, _, _, err = signer.Parse(token, false)
	require.ErrorIs(t, err, ErrInvalidToken)

	id, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "export-1", id)
	require.Equal(t, "students.csv", path)
}

func TestSignedURLSignerRejectsForeignSecret(t *testing.T) {
	token, _, err := NewSignedURLSigner("one", time.Hour).Generate("x", "a.csv")
	require.NoError(t, err)

	_, _, _, err = NewSignedURLSigner("two", time.Hour).Parse(token, true)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = NewSignedURLSigner("", time.Hour).Generate("x", "a.csv")
	require.Error(t, err)
}
