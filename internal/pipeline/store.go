package pipeline

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/apperr"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/model"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/repository"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/embedding"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/log"
)

// EmbeddingStore 将分块批量向量化并持久化到其归属文档名下。
type EmbeddingStore struct {
	client embedding.Client
	repo   repository.EmbeddingRepository
}

// NewEmbeddingStore 创建一个新的 EmbeddingStore 实例。
func NewEmbeddingStore(client embedding.Client, repo repository.EmbeddingRepository) *EmbeddingStore {
	return &EmbeddingStore{client: client, repo: repo}
}

// EmbedAndStore 把一个文档的所有分块合并为一次 embedding 调用，
// 将每个向量与其分块文本和元数据配对后整批落库，返回写入条数。
//
// 成功时写入条数等于输入分块数。embedding 调用或写库的任何失败都会
// 中止整批并向上传播——缺向量的部分索引会破坏引用准确性，宁可整体失败。
func (s *EmbeddingStore) EmbedAndStore(ctx context.Context, chunks []model.Chunk, documentID uint) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.client.CreateEmbeddings(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperr.ErrEmbeddingService, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d vectors for %d chunks", apperr.ErrEmbeddingService, len(vectors), len(chunks))
	}

	// 重新索引前清理该文档既有的向量记录（幂等）。
	if err := s.repo.DeleteByDocumentID(documentID); err != nil {
		log.Warnf("[EmbeddingStore] 清理 embeddings 旧记录失败 (document_id=%d): %v", documentID, err)
	}

	records := make([]*model.Embedding, 0, len(chunks))
	for i, chunk := range chunks {
		records = append(records, &model.Embedding{
			Vector:     pgvector.NewVector(vectors[i]),
			Text:       chunk.Text,
			Metadata:   datatypes.JSONMap(chunk.Metadata),
			DocumentID: documentID,
		})
	}

	if err := s.repo.BatchCreate(records); err != nil {
		return 0, fmt.Errorf("store embeddings for document %d: %w", documentID, err)
	}

	log.Infof("[EmbeddingStore] 成功写入 %d 条向量记录, document_id: %d", len(records), documentID)
	return len(records), nil
}

// EmbedQuery 向量化单条查询文本，供检索阶段使用，不触碰存储。
func (s *EmbeddingStore) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.client.EmbedQuery(ctx, text)
}
