package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundtrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)

	token, expires, err := signer.Generate("mat-1", "1700000000000-sheet.pdf")
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	materialID, key, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "mat-1", materialID)
	assert.Equal(t, "1700000000000-sheet.pdf", key)
	assert.Equal(t, expires.Unix(), parsedExpiry.Unix())
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("mat-1", "key.pdf")
	require.NoError(t, err)

	// Swapping the material id invalidates the signature.
	parts := strings.SplitN(token, ".", 2)
	_, _, _, err = signer.Parse("mat-2." + parts[1])
	require.Error(t, err)

	_, _, _, err = signer.Parse("not-a-token")
	require.Error(t, err)
}

func TestSignedURLRejectsForeignSecret(t *testing.T) {
	token, _, err := NewSignedURLSigner("secret-a", time.Minute).Generate("mat-1", "key.pdf")
	require.NoError(t, err)

	_, _, _, err = NewSignedURLSigner("secret-b", time.Minute).Parse(token)
	require.Error(t, err)
}

func TestSignedURLExpiry(t *testing.T) {
	signer := NewSignedURLSigner("secret", -time.Minute)
	// A non-positive TTL falls back to the default, so force an expired token
	// by signing with a tiny TTL and waiting past it.
	signer.ttl = time.Nanosecond
	token, _, err := signer.Generate("mat-1", "key.pdf")
	require.NoError(t, err)

	time.Sleep(time.Second + 50*time.Millisecond)
	_, _, _, err = signer.Parse(token)
	require.Error(t, err)
}

func TestSignedURLRequiresInputs(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	_, _, err := signer.Generate("", "key.pdf")
	require.Error(t, err)
	_, _, err = signer.Generate("mat-1", "")
	require.Error(t, err)

	empty := NewSignedURLSigner("", time.Minute)
	_, _, err = empty.Generate("mat-1", "key.pdf")
	require.Error(t, err)
}
