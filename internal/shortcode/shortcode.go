// Package shortcode generates the random codes assigned to shortened URLs.
package shortcode

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the character set short codes are drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength yields roughly 5.6e10 possible codes. Collisions are rare but
// possible, so callers must still verify uniqueness against the store.
const DefaultLength = 6

// Generate returns a code of the given length drawn uniformly at random from
// Alphabet. It carries no uniqueness guarantee.
func Generate(length int) (string, error) {
	const op = "shortcode.Generate"

	code, err := gonanoid.Generate(Alphabet, length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
	}

	return code, nil
}
