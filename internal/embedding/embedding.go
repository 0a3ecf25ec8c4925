// Package embedding provides a deterministic bag-of-words vectorizer.
// It needs no external model: texts are tokenized, counted and
// L2-normalized, so cosine similarity works with plain dot products.
package embedding

import (
	"math"
	"regexp"
	"strings"
)

var tokenRe = regexp.MustCompile(`[\w']+`)

// Vector is a sparse term-weight map produced by Embed.
type Vector map[string]float64

// Tokens lowercases text and splits it into word tokens. Apostrophes
// stay inside tokens so contractions survive ("don't").
func Tokens(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// Embed builds an L2-normalized term-frequency vector for text.
// Empty or tokenless text yields an empty vector.
func Embed(text string) Vector {
	vec := make(Vector)
	for _, tok := range Tokens(text) {
		vec[tok]++
	}

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}
	for tok, v := range vec {
		vec[tok] = v / norm
	}
	return vec
}

// Cosine returns the dot product of two vectors. Both sides come from
// Embed, so the product of unit vectors is the cosine similarity.
// Either side being empty yields 0.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Iterate the smaller side.
	if len(a) > len(b) {
		a, b = b, a
	}
	var sum float64
	for tok, w := range a {
		sum += w * b[tok]
	}
	return sum
}
