// Package challenge produces the short random tokens a probe embeds in its
// request and expects echoed back by the target.
package challenge

import "math/rand/v2"

// Length is the number of characters in a token.
const Length = 7

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Generator draws tokens from a random source.
type Generator struct {
	intN func(n int) int
}

// NewGenerator returns a Generator backed by src. A nil src uses the
// package-level random source.
func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		return &Generator{intN: rand.IntN}
	}
	return &Generator{intN: rand.New(src).IntN}
}

// Token returns Length characters drawn uniformly from [A-Za-z0-9].
func (g *Generator) Token() string {
	b := make([]byte, Length)
	for i := range b {
		b[i] = alphabet[g.intN(len(alphabet))]
	}
	return string(b)
}

// Generate returns a token from the package-level random source.
func Generate() string {
	return NewGenerator(nil).Token()
}
