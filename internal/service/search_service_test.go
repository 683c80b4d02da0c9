package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/apperr"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/model"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/repository"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return f.vector, f.err
}

type fakeEmbeddingRepo struct {
	hits      []repository.NearestEmbedding
	err       error
	gotUserID uint
	gotTopK   int
}

func (f *fakeEmbeddingRepo) BatchCreate(_ []*model.Embedding) error   { return nil }
func (f *fakeEmbeddingRepo) DeleteByDocumentID(_ uint) error          { return nil }
func (f *fakeEmbeddingRepo) SearchNearest(_ context.Context, _ pgvector.Vector, userID uint, topK int) ([]repository.NearestEmbedding, error) {
	f.gotUserID = userID
	f.gotTopK = topK
	return f.hits, f.err
}

func TestNormalizeRelevanceScore(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     float64
	}{
		{"perfect match", 0, 100},
		{"orthogonal", 1, 0},
		{"low band upper edge", 0.80, 40},
		{"mid band upper edge", 0.65, 80},
		{"high band upper edge", 0.50, 95},
		{"inside low band", 0.90, 20},
		{"inside mid band", 0.725, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, normalizeRelevanceScore(tt.distance), 1e-9)
		})
	}
}

func TestNormalizeRelevanceScore_Monotonic(t *testing.T) {
	prev := normalizeRelevanceScore(1.0)
	for d := 0.99; d >= 0; d -= 0.01 {
		score := normalizeRelevanceScore(d)
		assert.GreaterOrEqual(t, score, prev, "distance %f", d)
		prev = score
	}
}

func TestRetrieve_RequiresIdentity(t *testing.T) {
	svc := NewSearchService(&fakeEmbedder{}, &fakeEmbeddingRepo{}, 0)

	_, err := svc.Retrieve(context.Background(), "query", 0, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidIdentity)
}

func TestRetrieve_EmbedderFailureWrapped(t *testing.T) {
	svc := NewSearchService(&fakeEmbedder{err: errors.New("timeout")}, &fakeEmbeddingRepo{}, 0)

	_, err := svc.Retrieve(context.Background(), "query", 7, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrRetrievalService)
}

func TestRetrieve_EmptyResultIsNotAnError(t *testing.T) {
	svc := NewSearchService(&fakeEmbedder{vector: []float32{0.1}}, &fakeEmbeddingRepo{}, 0)

	results, err := svc.Retrieve(context.Background(), "query", 7, 5)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRetrieve_MapsHitsAndRounds(t *testing.T) {
	repo := &fakeEmbeddingRepo{
		hits: []repository.NearestEmbedding{
			{
				Text:           "chunk one",
				Metadata:       datatypes.JSONMap{"h1": "Summary", "page": float64(1)},
				DocumentID:     42,
				CosineDistance: 0.654321,
			},
			{
				Text:           "chunk two",
				DocumentID:     43,
				CosineDistance: 0.9,
			},
		},
	}
	svc := NewSearchService(&fakeEmbedder{vector: []float32{0.1, 0.2}}, repo, 0)

	results, err := svc.Retrieve(context.Background(), "query", 7, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, uint(7), repo.gotUserID)
	assert.Equal(t, 2, repo.gotTopK)

	first := results[0]
	assert.Equal(t, "chunk one", first.Text)
	assert.Equal(t, uint(42), first.DocumentID)
	assert.Equal(t, 0.6543, first.CosineDistance)
	// raw = 34.5679 → 40 + 14.5679/15*40 = 78.85 (两位小数)
	assert.Equal(t, 78.85, first.RelevanceScore)
	assert.Equal(t, "Summary", first.Metadata["h1"])

	second := results[1]
	assert.Equal(t, 0.9, second.CosineDistance)
	assert.Equal(t, 20.0, second.RelevanceScore)
}

func TestRetrieve_DefaultsTopK(t *testing.T) {
	repo := &fakeEmbeddingRepo{}
	svc := NewSearchService(&fakeEmbedder{vector: []float32{0.1}}, repo, 0)

	_, err := svc.Retrieve(context.Background(), "query", 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, repo.gotTopK)
}

func TestRetrieve_UsesConfiguredDefaultTopK(t *testing.T) {
	repo := &fakeEmbeddingRepo{}
	svc := NewSearchService(&fakeEmbedder{vector: []float32{0.1}}, repo, 8)

	_, err := svc.Retrieve(context.Background(), "query", 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, repo.gotTopK)

	// 调用方显式传入的 topK 优先于配置默认值
	_, err = svc.Retrieve(context.Background(), "query", 7, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.gotTopK)
}
