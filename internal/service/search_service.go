// Package service 提供了检索与问答相关的业务逻辑。
package service

import (
	"context"
	"fmt"
	"math"

	"github.com/pgvector/pgvector-go"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/apperr"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/model"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/repository"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/log"
)

// QueryEmbedder 是检索服务依赖的查询向量化窄契约。
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SearchService 接口定义了相似度检索操作。
type SearchService interface {
	Retrieve(ctx context.Context, query string, userID uint, topK int) ([]model.RetrievedChunk, error)
}

type searchService struct {
	embedder      QueryEmbedder
	embeddingRepo repository.EmbeddingRepository
	defaultTopK   int
}

// NewSearchService 创建一个新的 SearchService 实例。
// defaultTopK 传 0 或负数时回落为 5。
func NewSearchService(embedder QueryEmbedder, embeddingRepo repository.EmbeddingRepository, defaultTopK int) SearchService {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &searchService{
		embedder:      embedder,
		embeddingRepo: embeddingRepo,
		defaultTopK:   defaultTopK,
	}
}

// Retrieve 执行归属范围内的余弦距离检索并返回带相关度分数的分块。
// 空结果是合法输出：没有命中时返回空切片而非错误。
func (s *searchService) Retrieve(ctx context.Context, query string, userID uint, topK int) ([]model.RetrievedChunk, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: missing user id", apperr.ErrInvalidIdentity)
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}
	log.Infof("[SearchService] 开始检索, query: '%s', userID: %d, topK: %d", query, userID, topK)

	// 1. 向量化查询
	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Errorf("[SearchService] 向量化查询失败: %v", err)
		return nil, fmt.Errorf("%w: embed query: %v", apperr.ErrRetrievalService, err)
	}

	// 2. 在用户文档范围内做最近邻检索
	hits, err := s.embeddingRepo.SearchNearest(ctx, pgvector.NewVector(queryVector), userID, topK)
	if err != nil {
		log.Errorf("[SearchService] 最近邻检索失败: %v", err)
		return nil, fmt.Errorf("%w: nearest search: %v", apperr.ErrRetrievalService, err)
	}

	// 3. 组装结果并换算相关度
	results := make([]model.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		results = append(results, model.RetrievedChunk{
			Text:           hit.Text,
			Metadata:       map[string]any(hit.Metadata),
			DocumentID:     hit.DocumentID,
			RelevanceScore: round2(normalizeRelevanceScore(hit.CosineDistance)),
			CosineDistance: round4(hit.CosineDistance),
		})
	}

	log.Infof("[SearchService] 检索完成, 返回 %d 条分块", len(results))
	return results, nil
}

// normalizeRelevanceScore 把余弦距离换算为 0-100 的相关度分数。
// 原始相似度 (1-distance)*100 在语义检索里天然偏低且挤在窄区间，
// 这里用分段线性拉伸把它铺开，保持单调：距离越小分数越高。
func normalizeRelevanceScore(cosineDistance float64) float64 {
	raw := (1 - cosineDistance) * 100
	switch {
	case raw <= 20:
		return raw / 20 * 40
	case raw <= 35:
		return 40 + (raw-20)/15*40
	case raw <= 50:
		return 80 + (raw-35)/15*15
	default:
		return 95 + (raw-50)/50*5
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
