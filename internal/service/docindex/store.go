package docindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// StatusProcessed is the status text reported after a successful ingestion.
const StatusProcessed = "Document processed successfully."

const (
	embedBatchSize   = 32
	embedConcurrency = 4
	metaScore        = "score"
)

// snapshot is an immutable index generation.
type snapshot struct {
	docs    []*schema.Document
	vectors [][]float64
	builtAt time.Time
}

// Options configures a Store.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	EmbeddingDim int
}

// Store owns the document similarity index. Each ingestion replaces the
// previous generation; readers always see a complete snapshot.
type Store struct {
	transformer document.Transformer
	embedder    embedding.Embedder
	topK        int

	current atomic.Pointer[snapshot]
}

// NewStore builds a Store with the recursive splitter and hashing embedder.
func NewStore(opts Options) (*Store, error) {
	splitter, err := NewSplitter(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	embedder, err := NewHashingEmbedder(opts.EmbeddingDim)
	if err != nil {
		return nil, err
	}
	return NewStoreWith(splitter, embedder, opts.TopK), nil
}

// NewStoreWith wires custom eino components.
func NewStoreWith(transformer document.Transformer, embedder embedding.Embedder, topK int) *Store {
	if topK <= 0 {
		topK = 3
	}
	return &Store{transformer: transformer, embedder: embedder, topK: topK}
}

// Ingest loads, splits and embeds one uploaded file, then swaps the index.
func (s *Store) Ingest(ctx context.Context, name string, r io.Reader) (string, error) {
	doc, err := Load(name, r)
	if err != nil {
		return "", err
	}
	if _, err := s.IngestDocuments(ctx, []*schema.Document{doc}); err != nil {
		return "", err
	}
	return StatusProcessed, nil
}

// IngestDocuments replaces the index with the chunks of docs and returns the chunk count.
func (s *Store) IngestDocuments(ctx context.Context, docs []*schema.Document) (int, error) {
	chunks, err := s.transformer.Transform(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("split documents: %w", err)
	}
	if len(chunks) == 0 {
		return 0, ErrEmptyDocument
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	s.current.Store(&snapshot{docs: chunks, vectors: vectors, builtAt: time.Now()})

	log.Info().
		Str("component", "docindex").
		Int("documents", len(docs)).
		Int("chunks", len(chunks)).
		Msg("document index rebuilt")
	return len(chunks), nil
}

func (s *Store) embedChunks(ctx context.Context, chunks []*schema.Document) ([][]float64, error) {
	vectors := make([][]float64, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for start := 0; start < len(chunks); start += embedBatchSize {
		start := start
		end := min(start+embedBatchSize, len(chunks))

		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, c := range chunks[start:end] {
				texts = append(texts, c.Content)
			}
			out, err := s.embedder.EmbedStrings(gctx, texts)
			if err != nil {
				return err
			}
			if len(out) != len(texts) {
				return errors.New("embedder returned a mismatched number of vectors")
			}
			copy(vectors[start:end], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Ready reports whether an index generation exists.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// Len returns the number of indexed chunks.
func (s *Store) Len() int {
	if snap := s.current.Load(); snap != nil {
		return len(snap.docs)
	}
	return 0
}

// Retrieve implements retriever.Retriever. Without an index it returns no documents.
func (s *Store) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, nil
	}

	topK := s.topK
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &topK}, opts...)
	k := topK
	if options.TopK != nil && *options.TopK > 0 {
		k = *options.TopK
	}

	vecs, err := s.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, errors.New("embedder returned no query vector")
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(snap.docs))
	for i, v := range snap.vectors {
		ranked[i] = scored{idx: i, score: dot(vecs[0], v)}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]*schema.Document, 0, k)
	for _, r := range ranked[:k] {
		src := snap.docs[r.idx]
		meta := make(map[string]any, len(src.MetaData)+1)
		for key, val := range src.MetaData {
			meta[key] = val
		}
		meta[metaScore] = r.score
		out = append(out, &schema.Document{ID: src.ID, Content: src.Content, MetaData: meta})
	}
	return out, nil
}

// Query returns the contents of the k most similar chunks.
func (s *Store) Query(ctx context.Context, text string, k int) ([]string, error) {
	docs, err := s.Retrieve(ctx, text, retriever.WithTopK(k))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Content)
	}
	return out, nil
}

var _ retriever.Retriever = (*Store)(nil)
