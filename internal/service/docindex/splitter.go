package docindex

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

const metaChunkIndex = "chunk_index"

// DefaultSeparators are tried in order, coarsest first.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter is a recursive character splitter usable as an eino document.Transformer.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewSplitter validates the sizes and returns a splitter using DefaultSeparators.
func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", chunkOverlap, chunkSize)
	}
	return &Splitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap, Separators: DefaultSeparators}, nil
}

// Transform splits every document into chunks that inherit its metadata.
func (s *Splitter) Transform(_ context.Context, docs []*schema.Document, _ ...document.TransformerOption) ([]*schema.Document, error) {
	var out []*schema.Document
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for i, chunk := range s.SplitText(doc.Content) {
			meta := make(map[string]any, len(doc.MetaData)+1)
			for k, v := range doc.MetaData {
				meta[k] = v
			}
			meta[metaChunkIndex] = i
			out = append(out, &schema.Document{
				ID:       uuid.NewString(),
				Content:  chunk,
				MetaData: meta,
			})
		}
	}
	return out, nil
}

// SplitText splits text into chunks of at most ChunkSize characters.
func (s *Splitter) SplitText(text string) []string {
	seps := s.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}
	return s.split(text, seps)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var next []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			next = separators[i+1:]
			break
		}
	}

	var pieces []string
	if separator == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		pieces = strings.Split(text, separator)
	}

	var (
		final []string
		good  []string
	)
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if runeLen(p) < s.ChunkSize {
			good = append(good, p)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good, separator)...)
			good = nil
		}
		if len(next) == 0 {
			final = append(final, p)
		} else {
			final = append(final, s.split(p, next)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, separator)...)
	}
	return final
}

// merge packs pieces into chunks, carrying up to ChunkOverlap characters forward.
func (s *Splitter) merge(pieces []string, separator string) []string {
	sepLen := runeLen(separator)

	var (
		chunks  []string
		current []string
		total   int
	)
	joinLen := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, p := range pieces {
		l := runeLen(p)
		if total+l+joinLen() > s.ChunkSize {
			if len(current) > 0 {
				if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
					chunks = append(chunks, chunk)
				}
				for len(current) > 0 && (total > s.ChunkOverlap || total+l+joinLen() > s.ChunkSize) {
					drop := runeLen(current[0])
					if len(current) > 1 {
						drop += sepLen
					}
					total -= drop
					current = current[1:]
				}
			}
		}
		current = append(current, p)
		if len(current) > 1 {
			total += sepLen
		}
		total += l
	}

	if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

var _ document.Transformer = (*Splitter)(nil)
