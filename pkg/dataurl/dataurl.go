package dataurl

import (
	"encoding/base64"
	"errors"
	"strings"
)

// MaxLogoBytes bounds the decoded logo size accepted from the browser.
const MaxLogoBytes = 1 << 20 // 1 MiB

var (
	ErrNotDataURL = errors.New("not a base64 image data URL")
	ErrTooLarge   = errors.New("image exceeds the 1 MB limit")
)

// DecodeImage parses a browser FileReader data URL ("data:image/png;base64,…")
// and returns the decoded bytes. Only base64-encoded image payloads within
// MaxLogoBytes are accepted.
func DecodeImage(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "data:image/") {
		return nil, ErrNotDataURL
	}
	idx := strings.Index(s, ";base64,")
	if idx < 0 {
		return nil, ErrNotDataURL
	}
	payload := s[idx+len(";base64,"):]
	// DecodedLen over-estimates by up to two padding bytes; the exact check
	// happens after decoding.
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxLogoBytes+2 {
		return nil, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrNotDataURL
	}
	if len(data) > MaxLogoBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
