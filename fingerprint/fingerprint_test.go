package fingerprint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-device-auth/fingerprint"
	apperrors "github.com/jrsteele09/go-device-auth/internal/errors"
)

func TestHashDeterministic(t *testing.T) {
	first, err := fingerprint.Hash("mozilla/5.0|en-GB|1920x1080")
	require.NoError(t, err)

	second, err := fingerprint.Hash("mozilla/5.0|en-GB|1920x1080")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, first, fingerprint.DigestLength)
}

func TestHashDistinguishesBrowsers(t *testing.T) {
	chrome, err := fingerprint.Hash("chrome-fingerprint")
	require.NoError(t, err)

	firefox, err := fingerprint.Hash("firefox-fingerprint")
	require.NoError(t, err)

	require.NotEqual(t, chrome, firefox)
}

func TestHashCanonicalizesWhitespace(t *testing.T) {
	trimmed, err := fingerprint.Hash("abc123")
	require.NoError(t, err)

	padded, err := fingerprint.Hash("  abc123\n")
	require.NoError(t, err)

	require.Equal(t, trimmed, padded)
}

func TestHashRejectsEmptyInput(t *testing.T) {
	_, err := fingerprint.Hash("")
	require.ErrorIs(t, err, apperrors.ErrInvalidFingerprint)

	_, err = fingerprint.Hash("   ")
	require.ErrorIs(t, err, apperrors.ErrInvalidFingerprint)
}
