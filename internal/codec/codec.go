// Package codec converts between user data / message payloads and Go
// values. Every helper returns an empty result instead of an error.
package codec

import (
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// FromString returns the UTF-8 bytes of s, or nil when s is not valid UTF-8.
func FromString(s string) []byte {
	if !utf8.ValidString(s) {
		return nil
	}
	return []byte(s)
}

// ToString returns data as a string, or "" when it is not valid UTF-8.
func ToString(data []byte) string {
	if !utf8.Valid(data) {
		return ""
	}
	return string(data)
}

// FromJSON encodes v, returning nil when it cannot be encoded.
func FromJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// ToJSON decodes data into a T. ok is false when data is empty or invalid.
func ToJSON[T any](data []byte) (v T, ok bool) {
	if len(data) == 0 {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}
