package docindex

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/cloudwego/eino/components/embedding"
)

// HashingEmbedder maps text to a fixed-size vector by hashing word unigrams
// and bigrams. Vectors are L2-normalized, so a dot product is the cosine.
type HashingEmbedder struct {
	Dim int
}

// NewHashingEmbedder returns an embedder producing dim-sized vectors.
func NewHashingEmbedder(dim int) (*HashingEmbedder, error) {
	if dim < 8 {
		return nil, fmt.Errorf("embedding dimension must be >= 8, got %d", dim)
	}
	return &HashingEmbedder{Dim: dim}, nil
}

// EmbedStrings implements embedding.Embedder.
func (e *HashingEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *HashingEmbedder) embed(text string) []float64 {
	vec := make([]float64, e.Dim)
	tokens := tokenize(text)

	for i, tok := range tokens {
		e.add(vec, tok, 1)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

func (e *HashingEmbedder) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(e.Dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		if i >= len(b) {
			break
		}
		s += a[i] * b[i]
	}
	return s
}

var _ embedding.Embedder = (*HashingEmbedder)(nil)
