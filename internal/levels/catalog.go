// Package levels is the fixed, ordered registry of quiz levels.
package levels

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/CodeAndHammer/blackbox/internal/cipher"
)

//go:embed levels.yaml
var bundled []byte

var (
	ErrUnknownLevel = errors.New("unknown level")
	ErrInvalidData  = errors.New("invalid level data")
)

// Sample is one row of a level's example table.
type Sample struct {
	Plain  string `json:"plain"`
	Cipher string `json:"cipher"`
}

// Definition bundles a level's cipher with the text shown for it.
type Definition struct {
	Number           int
	Title            string
	Description      string
	SamplePlaintexts []string
	Question         string
	Cipher           cipher.Cipher
}

// CorrectAnswer decrypts the question. It is recomputed on every call.
func (d Definition) CorrectAnswer() string {
	return d.Cipher.Decrypt(d.Question)
}

// Samples pairs every sample plaintext with its encryption, in order.
func (d Definition) Samples() []Sample {
	return lo.Map(d.SamplePlaintexts, func(p string, _ int) Sample {
		return Sample{Plain: p, Cipher: d.Cipher.Encrypt(p)}
	})
}

// Catalog is read-only once built.
type Catalog struct {
	defs []Definition
}

func (c *Catalog) Count() int {
	return len(c.defs)
}

func (c *Catalog) Get(n int) (Definition, error) {
	if n < 1 || n > len(c.defs) {
		return Definition{}, fmt.Errorf("%w: %d", ErrUnknownLevel, n)
	}
	return c.defs[n-1], nil
}

// MustGet panics on an unknown level. Callers only pass numbers derived
// from a valid page.
func (c *Catalog) MustGet(n int) Definition {
	d, err := c.Get(n)
	if err != nil {
		panic(err)
	}
	return d
}

func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

type fileLevel struct {
	Number      int         `yaml:"number"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Cipher      cipher.Spec `yaml:"cipher"`
	Samples     []string    `yaml:"samples"`
	Question    string      `yaml:"question"`
}

type fileCatalog struct {
	Levels []fileLevel `yaml:"levels"`
}

// Default builds the catalog from the bundled level data.
func Default() (*Catalog, error) {
	return Parse(bundled)
}

// MustDefault is Default for package initialisation and tests.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML level data. Levels must be numbered
// 1..n without gaps; they may appear in any order in the file.
func Parse(data []byte) (*Catalog, error) {
	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if len(fc.Levels) == 0 {
		return nil, fmt.Errorf("%w: no levels", ErrInvalidData)
	}

	defs := make([]Definition, len(fc.Levels))
	seen := make([]bool, len(fc.Levels))
	for _, fl := range fc.Levels {
		if fl.Number < 1 || fl.Number > len(fc.Levels) {
			return nil, fmt.Errorf("%w: level number %d outside 1..%d", ErrInvalidData, fl.Number, len(fc.Levels))
		}
		if seen[fl.Number-1] {
			return nil, fmt.Errorf("%w: duplicate level %d", ErrInvalidData, fl.Number)
		}
		seen[fl.Number-1] = true

		if strings.TrimSpace(fl.Question) == "" {
			return nil, fmt.Errorf("%w: level %d has no question", ErrInvalidData, fl.Number)
		}
		if len(fl.Samples) == 0 {
			return nil, fmt.Errorf("%w: level %d has no samples", ErrInvalidData, fl.Number)
		}
		c, err := cipher.Build(fl.Cipher)
		if err != nil {
			return nil, fmt.Errorf("%w: level %d: %w", ErrInvalidData, fl.Number, err)
		}

		title := fl.Title
		if title == "" {
			title = fmt.Sprintf("Level %d", fl.Number)
		}
		defs[fl.Number-1] = Definition{
			Number:           fl.Number,
			Title:            title,
			Description:      fl.Description,
			SamplePlaintexts: append([]string(nil), fl.Samples...),
			Question:         fl.Question,
			Cipher:           c,
		}
	}
	return &Catalog{defs: defs}, nil
}
