package dataurl

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("fake-image-bytes"))

	data, err := DecodeImage("data:image/png;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-image-bytes"), data)
}

func TestDecodeImageRejectsNonImage(t *testing.T) {
	_, err := DecodeImage("data:text/plain;base64,aGVsbG8=")
	assert.ErrorIs(t, err, ErrNotDataURL)

	_, err = DecodeImage("https://example.com/logo.png")
	assert.ErrorIs(t, err, ErrNotDataURL)

	_, err = DecodeImage("data:image/png,no-base64-marker")
	assert.ErrorIs(t, err, ErrNotDataURL)
}

func TestDecodeImageRejectsBadBase64(t *testing.T) {
	_, err := DecodeImage("data:image/png;base64,!!!")
	assert.ErrorIs(t, err, ErrNotDataURL)
}

func TestDecodeImageEnforcesSizeLimit(t *testing.T) {
	big := base64.StdEncoding.EncodeToString(make([]byte, MaxLogoBytes+1))
	_, err := DecodeImage("data:image/png;base64," + big)
	assert.ErrorIs(t, err, ErrTooLarge)

	exact := base64.StdEncoding.EncodeToString(make([]byte, MaxLogoBytes))
	data, err := DecodeImage("data:image/png;base64," + exact)
	require.NoError(t, err)
	assert.Len(t, data, MaxLogoBytes)
}
