package cipher

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCipher = errors.New("unknown cipher")

// Spec describes a cipher in level data files.
//
//	kind: shift | reverse | chain
//	letters/digits: offsets for shift
//	stages: nested specs for chain, in encryption order
type Spec struct {
	Kind    string `yaml:"kind"`
	Letters int    `yaml:"letters,omitempty"`
	Digits  int    `yaml:"digits,omitempty"`
	Stages  []Spec `yaml:"stages,omitempty"`
}

// Build resolves a Spec into a Cipher.
func Build(spec Spec) (Cipher, error) {
	switch strings.ToLower(strings.TrimSpace(spec.Kind)) {
	case "shift":
		return Shift{LetterOffset: spec.Letters, DigitOffset: spec.Digits}, nil
	case "reverse":
		return Reverse{}, nil
	case "chain":
		if len(spec.Stages) == 0 {
			return nil, fmt.Errorf("chain needs at least one stage: %w", ErrUnknownCipher)
		}
		stages := make([]Cipher, 0, len(spec.Stages))
		for i, st := range spec.Stages {
			c, err := Build(st)
			if err != nil {
				return nil, fmt.Errorf("stage %d: %w", i, err)
			}
			stages = append(stages, c)
		}
		return Chain(stages...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, spec.Kind)
	}
}
