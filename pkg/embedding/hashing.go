package embedding

import (
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// DefaultDimensions is the vector size of the hashing provider.
const DefaultDimensions = 256

// stopWords are excluded from the token stream so that function words do not
// dominate the vector.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"to": true, "of": true, "in": true, "on": true, "at": true,
	"for": true, "with": true, "and": true, "or": true, "it": true,
	"this": true, "that": true, "by": true, "from": true, "as": true,
}

// HashingProvider is an in-process Embedder built on the hashing trick:
// tokens (and their adjacent-pair bigrams) are hashed into a fixed number of
// signed buckets and the result is L2-normalized. It is a deterministic pure
// function of the input text. Embeddings are memoized per provider instance,
// keyed by exact string equality; the cache lives as long as the provider.
type HashingProvider struct {
	dims int

	mu    sync.Mutex
	cache map[string][]float64
}

// NewHashingProvider creates a provider emitting vectors of the given
// dimensionality. Non-positive dims fall back to DefaultDimensions.
func NewHashingProvider(dims int) *HashingProvider {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashingProvider{
		dims:  dims,
		cache: make(map[string][]float64),
	}
}

// Dimensions returns the vector size.
func (p *HashingProvider) Dimensions() int {
	return p.dims
}

// Embed returns the embedding for text, computing it on first use and serving
// the memoized vector afterwards.
func (p *HashingProvider) Embed(text string) ([]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if vec, ok := p.cache[text]; ok {
		return vec, nil
	}

	vec := p.compute(text)
	p.cache[text] = vec
	return vec, nil
}

// CacheSize reports how many distinct texts have been embedded.
func (p *HashingProvider) CacheSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}

func (p *HashingProvider) compute(text string) []float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		// Texts with no meaningful tokens still get a unit vector derived
		// from the raw string, so self-similarity stays 1.
		tokens = []string{text}
	}

	vec := make([]float64, p.dims)
	accumulate := func(token string) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()

		bucket := int(sum % uint64(p.dims))
		if sum&(1<<63) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	for i, token := range tokens {
		accumulate(token)
		if i+1 < len(tokens) {
			accumulate(token + " " + tokens[i+1])
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}

	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// tokenize lowercases the text, splits on non-alphanumeric runes, and drops
// stop words.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_')
	})

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}
