// Package share encodes code buffers into URL query parameters and back.
package share

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"
)

// Param is the query parameter carrying an encoded buffer.
const Param = "c"

const previewLen = 15

var ErrMalformed = errors.New("malformed share token")

// Encode returns the URL-safe, unpadded base64 of text's UTF-8 bytes.
func Encode(text string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(text))
}

// Decode reverses Encode. Standard and URL-safe alphabets are accepted,
// padded or not.
func Decode(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", nil
	}
	norm := strings.NewReplacer("+", "-", "/", "_").Replace(strings.TrimRight(token, "="))
	b, err := base64.RawURLEncoding.DecodeString(norm)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: not UTF-8", ErrMalformed)
	}
	return string(b), nil
}

// DecodeOr returns fallback when token does not decode.
func DecodeOr(token, fallback string) string {
	s, err := Decode(token)
	if err != nil || s == "" {
		return fallback
	}
	return s
}

// Link returns base with text encoded into the share parameter. Existing
// query values other than the share parameter are kept.
func Link(base, text string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set(Param, Encode(text))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FromURL extracts the buffer from a share link, or fallback when the link
// carries none.
func FromURL(rawURL, fallback string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fallback
	}
	return DecodeOr(u.Query().Get(Param), fallback)
}

// Preview shortens a link for display.
func Preview(token string) string {
	r := []rune(token)
	if len(r) <= previewLen {
		return token
	}
	return string(r[:previewLen]) + "..."
}

// Copy places s on the system clipboard.
func Copy(s string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard unsupported on this system")
	}
	if err := clipboard.WriteAll(s); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
