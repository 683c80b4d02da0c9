package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/apperr"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/model"
)

type fakeSearchService struct {
	chunks  []model.RetrievedChunk
	err     error
	gotTopK int
}

func (f *fakeSearchService) Retrieve(_ context.Context, _ string, _ uint, topK int) ([]model.RetrievedChunk, error) {
	f.gotTopK = topK
	return f.chunks, f.err
}

type fakeLLM struct {
	answer    string
	err       error
	called    bool
	gotChunks []model.RetrievedChunk
}

func (f *fakeLLM) GenerateAnswer(_ context.Context, _ string, chunks []model.RetrievedChunk) (string, error) {
	f.called = true
	f.gotChunks = chunks
	return f.answer, f.err
}

func TestAsk_NoRelevantChunks(t *testing.T) {
	llm := &fakeLLM{}
	svc := NewChatService(&fakeSearchService{}, llm, 0)

	resp, err := svc.Ask(context.Background(), "what is x?", 7)
	require.NoError(t, err)

	assert.Equal(t, noContextAnswer, resp.Answer)
	assert.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
	assert.False(t, llm.called, "LLM must not be called without context")
}

func TestAsk_SourcesPassedThroughVerbatim(t *testing.T) {
	chunks := []model.RetrievedChunk{
		{Text: "chunk a", DocumentID: 1, RelevanceScore: 81.5, CosineDistance: 0.31},
		{Text: "chunk b", DocumentID: 2, RelevanceScore: 40.0, CosineDistance: 0.80},
	}
	llm := &fakeLLM{answer: "the answer"}
	svc := NewChatService(&fakeSearchService{chunks: chunks}, llm, 0)

	resp, err := svc.Ask(context.Background(), "what is x?", 7)
	require.NoError(t, err)

	assert.Equal(t, "the answer", resp.Answer)
	assert.Equal(t, chunks, resp.Sources)
	assert.Equal(t, chunks, llm.gotChunks)
}

func TestAsk_RetrievesWithConfiguredTopK(t *testing.T) {
	search := &fakeSearchService{}
	svc := NewChatService(search, &fakeLLM{}, 8)

	_, err := svc.Ask(context.Background(), "what is x?", 7)
	require.NoError(t, err)
	assert.Equal(t, 8, search.gotTopK)
}

func TestAsk_RetrievalErrorPropagated(t *testing.T) {
	retrievalErr := apperr.ErrRetrievalService
	svc := NewChatService(&fakeSearchService{err: retrievalErr}, &fakeLLM{}, 0)

	_, err := svc.Ask(context.Background(), "what is x?", 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrRetrievalService)
}

func TestAsk_LLMFailureWrapped(t *testing.T) {
	chunks := []model.RetrievedChunk{{Text: "chunk a", DocumentID: 1}}
	svc := NewChatService(&fakeSearchService{chunks: chunks}, &fakeLLM{err: errors.New("upstream 500")}, 0)

	_, err := svc.Ask(context.Background(), "what is x?", 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrLLMService)
}
