// Package embedding turns text into fixed-length vectors for similarity
// comparison. The embedding function is a pluggable capability; the only
// contract is that it is a deterministic pure function of the input text, so
// clustering behaves reproducibly within a run.
package embedding

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Embed returns a vector embedding for the given text.
	Embed(text string) ([]float64, error)

	// Dimensions returns the dimensionality of the output vectors.
	Dimensions() int
}
