package docindex

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Options{ChunkSize: 80, ChunkOverlap: 0, TopK: 3, EmbeddingDim: 384})
	require.NoError(t, err)
	return s
}

const handbook = "Vacation policy: employees receive twenty vacation days each year.\n\n" +
	"Expense policy: submit receipts within thirty days of purchase.\n\n" +
	"Security policy: laptops must use full disk encryption.\n\n" +
	"Parking: the garage opens at seven in the morning."

func TestRetrieveWithoutIndex(t *testing.T) {
	s := newTestStore(t)

	docs, err := s.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.False(t, s.Ready())

	texts, err := s.Query(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, texts)
}

func TestIngestAndQuery(t *testing.T) {
	s := newTestStore(t)

	status, err := s.Ingest(context.Background(), "handbook.txt", strings.NewReader(handbook))
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, status)
	assert.True(t, s.Ready())
	assert.Equal(t, 4, s.Len())

	texts, err := s.Query(context.Background(), "how many vacation days do employees get", 3)
	require.NoError(t, err)
	require.Len(t, texts, 3)
	assert.Contains(t, texts[0], "Vacation policy")

	docs, err := s.Retrieve(context.Background(), "disk encryption for laptops", retriever.WithTopK(1))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Content, "Security policy")
	assert.Equal(t, "handbook.txt", docs[0].MetaData[metaSource])
	assert.Greater(t, docs[0].MetaData[metaScore].(float64), 0.0)
}

func TestIngestReplacesPreviousIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, "handbook.txt", strings.NewReader(handbook))
	require.NoError(t, err)
	_, err = s.Ingest(ctx, "menu.md", strings.NewReader("Lunch menu: pasta on Tuesday."))
	require.NoError(t, err)

	assert.Equal(t, 1, s.Len())
	texts, err := s.Query(ctx, "vacation days", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lunch menu: pasta on Tuesday."}, texts)
}

func TestIngestFailureKeepsPreviousIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, "handbook.txt", strings.NewReader(handbook))
	require.NoError(t, err)

	_, err = s.Ingest(ctx, "resume.docx", strings.NewReader("PK"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, 4, s.Len())
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedStrings(context.Context, []string, ...embedding.Option) ([][]float64, error) {
	return nil, errors.New("embedding backend down")
}

func TestIngestPropagatesEmbedderErrors(t *testing.T) {
	splitter, err := NewSplitter(60, 0)
	require.NoError(t, err)
	s := NewStoreWith(splitter, failingEmbedder{}, 3)

	_, err = s.Ingest(context.Background(), "handbook.txt", strings.NewReader(handbook))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding backend down")
	assert.False(t, s.Ready())
}

func TestHashingEmbedderIsNormalizedAndDeterministic(t *testing.T) {
	e, err := NewHashingEmbedder(64)
	require.NoError(t, err)

	vecs, err := e.EmbedStrings(context.Background(), []string{"Budget review meeting", "budget REVIEW meeting", ""})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	assert.InDelta(t, 1.0, dot(vecs[0], vecs[0]), 1e-9)
	assert.Equal(t, vecs[0], vecs[1])
	assert.Zero(t, dot(vecs[2], vecs[2]))

	_, err = NewHashingEmbedder(4)
	assert.Error(t, err)
}
