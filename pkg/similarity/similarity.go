// Package similarity computes pairwise similarity scores between texts using
// cosine similarity over their embeddings.
package similarity

import (
	"math"

	"github.com/pkg/errors"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/embedding"
)

// Engine scores text pairs in [0, 1]. Scores are symmetric and identical
// texts score 1 up to floating-point tolerance.
type Engine struct {
	embedder embedding.Embedder
}

// NewEngine creates a similarity engine backed by the given embedder.
func NewEngine(embedder embedding.Embedder) *Engine {
	return &Engine{embedder: embedder}
}

// Similarity returns the cosine similarity between the embeddings of the two
// texts, clamped into [0, 1].
func (e *Engine) Similarity(textA, textB string) (float64, error) {
	vecA, err := e.embedder.Embed(textA)
	if err != nil {
		return 0, errors.Wrap(err, "failed to embed first text")
	}
	vecB, err := e.embedder.Embed(textB)
	if err != nil {
		return 0, errors.Wrap(err, "failed to embed second text")
	}
	return cosine(vecA, vecB), nil
}

// Matrix computes the full pairwise similarity matrix over the texts.
func (e *Engine) Matrix(texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := e.embedder.Embed(text)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to embed text %d", i)
		}
		vectors[i] = vec
	}

	matrix := make([][]float64, len(texts))
	for i := range vectors {
		matrix[i] = make([]float64, len(texts))
		matrix[i][i] = 1
		for j := i + 1; j < len(vectors); j++ {
			score := cosine(vectors[i], vectors[j])
			matrix[i][j] = score
		}
	}
	// Mirror the upper triangle; cosine is symmetric.
	for i := range matrix {
		for j := 0; j < i; j++ {
			matrix[i][j] = matrix[j][i]
		}
	}

	return matrix, nil
}

// cosine returns the cosine similarity of two vectors clamped into [0, 1].
func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
