// Package cipher holds the reversible text transforms behind each level.
//
// Every transform is total: any input string is accepted and characters a
// transform does not understand pass through unchanged.
package cipher

import (
	"fmt"
	"slices"
	"strings"
)

// Cipher is a named bidirectional text transform.
type Cipher interface {
	Name() string
	Encrypt(plain string) string
	Decrypt(cipherText string) string
}

// Shift rotates ASCII letters and digits by fixed offsets. Letters keep
// their case.
type Shift struct {
	LetterOffset int
	DigitOffset  int
}

func (s Shift) Name() string {
	return fmt.Sprintf("shift(%d,%d)", s.LetterOffset, s.DigitOffset)
}

func (s Shift) Encrypt(plain string) string {
	return shiftText(plain, s.LetterOffset, s.DigitOffset)
}

func (s Shift) Decrypt(cipherText string) string {
	return shiftText(cipherText, -s.LetterOffset, -s.DigitOffset)
}

func shiftText(text string, letters, digits int) string {
	if text == "" {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune('a' + rotate(r-'a', letters, 26))
		case r >= 'A' && r <= 'Z':
			b.WriteRune('A' + rotate(r-'A', letters, 26))
		case r >= '0' && r <= '9':
			b.WriteRune('0' + rotate(r-'0', digits, 10))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// rotate moves pos by offset inside [0, size), wrapping in both directions.
func rotate(pos rune, offset, size int) rune {
	n := (int(pos) + offset) % size
	if n < 0 {
		n += size
	}
	return rune(n)
}

// Reverse reverses the rune sequence. It is its own inverse.
type Reverse struct{}

func (Reverse) Name() string { return "reverse" }

func (Reverse) Encrypt(plain string) string { return reverseRunes(plain) }

func (Reverse) Decrypt(cipherText string) string { return reverseRunes(cipherText) }

func reverseRunes(text string) string {
	runes := []rune(text)
	slices.Reverse(runes)
	return string(runes)
}

// Chained applies its stages in order on Encrypt and undoes them in reverse
// order on Decrypt.
type Chained struct {
	stages []Cipher
}

// Chain composes stages. Chain(a, b).Encrypt(x) == b.Encrypt(a.Encrypt(x)).
func Chain(stages ...Cipher) Chained {
	return Chained{stages: slices.Clone(stages)}
}

func (c Chained) Name() string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

func (c Chained) Encrypt(plain string) string {
	out := plain
	for _, s := range c.stages {
		out = s.Encrypt(out)
	}
	return out
}

func (c Chained) Decrypt(cipherText string) string {
	out := cipherText
	for i := len(c.stages) - 1; i >= 0; i-- {
		out = c.stages[i].Decrypt(out)
	}
	return out
}
