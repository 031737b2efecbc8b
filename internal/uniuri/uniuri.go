package uniuri

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
)

const (
	// TokenLen is the length of a protocol token. With StdChars it carries
	// ~190 bits of entropy, well above the 128 bits required for state and nonce values.
	TokenLen = 32

	// SessionLen is the length of a session identifier (~285 bits of entropy).
	SessionLen = 48
)

// StdChars is a set of standard characters allowed in uniuri string.
// All characters are URL safe and need no escaping in query strings or cookies.
var StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// ErrCharsetLength is returned if the charset is smaller than 2 or larger than 256 characters.
var ErrCharsetLength = errors.New("uniuri: wrong charset length")

// NewToken returns a new random token of TokenLen standard characters.
// An error means the system entropy source failed and must not be retried silently.
func NewToken() (string, error) {
	return NewLenChars(TokenLen, StdChars)
}

// NewSessionID returns a new random session identifier of SessionLen standard characters.
func NewSessionID() (string, error) {
	return NewLenChars(SessionLen, StdChars)
}

const (
	// maxBufLen is the maximum length of a temporary buffer for random bytes.
	maxBufLen = 2048

	// minRegenBufLen is the minimum length of temporary buffer for random bytes
	// to fill after the first rand.Read request didn't produce the full result.
	// If the initial buffer is smaller, this value is ignored.
	minRegenBufLen = 16

	// maxByteValue is the maximum value of a byte (2^8 - 1).
	maxByteValue = 255

	// byteRange is the total number of possible byte values (2^8).
	byteRange = 256
)

// estimatedBufLen returns the estimated number of random bytes to request
// given that byte values greater than maxByte will be rejected.
func estimatedBufLen(need, maxByte int) int {
	return int(math.Ceil(float64(need) * (maxByteValue / float64(maxByte))))
}

// NewLenCharsBytes returns a new random byte slice of the provided length, consisting
// of the provided byte slice of allowed characters (maximum 256).
func NewLenCharsBytes(length int, chars []byte) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}

	clen := len(chars)
	if clen < 2 || clen > byteRange {
		return nil, ErrCharsetLength
	}

	maxRb := maxByteValue - (byteRange % clen)

	bufLen := max(estimatedBufLen(length, maxRb), length)
	bufLen = min(bufLen, maxBufLen)

	buf := make([]byte, bufLen) // storage for random bytes
	out := make([]byte, length) // storage for result

	var i int // index in out

	for {
		if _, err := rand.Read(buf[:bufLen]); err != nil {
			return nil, fmt.Errorf("uniuri: error reading random bytes: %w", err)
		}

		for _, rb := range buf[:bufLen] {
			c := int(rb)
			if c > maxRb {
				// Skip this number to avoid modulo bias.
				continue
			}

			out[i] = chars[c%clen]
			i++

			if i == length {
				return out, nil
			}
		}

		// Adjust new requested length, but no smaller than minRegenBufLen.
		bufLen = estimatedBufLen(length-i, maxRb)
		if bufLen < minRegenBufLen && minRegenBufLen < cap(buf) {
			bufLen = minRegenBufLen
		}

		bufLen = min(bufLen, maxBufLen)
	}
}

// NewLenChars returns a new random string of the provided length, consisting
// of the provided byte slice of allowed characters (maximum 256).
func NewLenChars(length int, chars []byte) (string, error) {
	b, err := NewLenCharsBytes(length, chars)
	if err != nil {
		return "", err
	}

	return string(b), nil
}
