package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/embedding"
)

func newEngine() *Engine {
	return NewEngine(embedding.NewHashingProvider(0))
}

func TestSelfSimilarityIsOne(t *testing.T) {
	engine := newEngine()

	for _, text := range []string{
		"deploy code to production",
		"a",
		"",
	} {
		score, err := engine.Similarity(text, text)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, score, 1e-6, "self-similarity of %q", text)
	}
}

func TestSimilarityIsSymmetric(t *testing.T) {
	engine := newEngine()

	ab, err := engine.Similarity("deploy code to production", "deploys code to production servers")
	require.NoError(t, err)
	ba, err := engine.Similarity("deploys code to production servers", "deploy code to production")
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
}

func TestSimilarityRange(t *testing.T) {
	engine := newEngine()

	pairs := [][2]string{
		{"deploy code to production", "water the plants"},
		{"build the project", "build the project"},
		{"", "anything at all"},
	}
	for _, pair := range pairs {
		score, err := engine.Similarity(pair[0], pair[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestMatrix(t *testing.T) {
	engine := newEngine()

	texts := []string{
		"deploy code to production",
		"deploys code to production",
		"water the plants",
	}
	matrix, err := engine.Matrix(texts)
	require.NoError(t, err)
	require.Len(t, matrix, 3)

	for i := range matrix {
		require.Len(t, matrix[i], 3)
		assert.InDelta(t, 1.0, matrix[i][i], 1e-6)
		for j := range matrix[i] {
			assert.Equal(t, matrix[i][j], matrix[j][i])
		}
	}

	// Overlapping descriptions score higher than unrelated ones.
	assert.Greater(t, matrix[0][1], matrix[0][2])
}
