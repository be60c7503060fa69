// Package slug mints short public identifiers for finished reels.
package slug

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Length is the number of characters in a slug.
const Length = 8

// Alphabet is the URL-safe set slugs are drawn from.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"

// Generator produces candidate slugs.
type Generator interface {
	Generate() (string, error)
}

// NanoID generates slugs with a cryptographically random source.
type NanoID struct{}

func (NanoID) Generate() (string, error) {
	id, err := gonanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("failed to generate slug: %w", err)
	}
	return id, nil
}
