package repository

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/model"
)

// NearestEmbedding 是一次相似度检索命中的单条记录及其余弦距离。
type NearestEmbedding struct {
	Text           string
	Metadata       datatypes.JSONMap
	DocumentID     uint
	CosineDistance float64
}

// EmbeddingRepository 定义了对 embeddings 表的数据操作接口。
// SearchNearest 的归属过滤是强制性的：查询只在指定用户的文档范围内执行。
type EmbeddingRepository interface {
	BatchCreate(embeddings []*model.Embedding) error
	DeleteByDocumentID(documentID uint) error
	SearchNearest(ctx context.Context, queryVector pgvector.Vector, userID uint, topK int) ([]NearestEmbedding, error)
}

type embeddingRepository struct {
	db *gorm.DB
}

// NewEmbeddingRepository 创建一个新的 EmbeddingRepository 实例。
func NewEmbeddingRepository(db *gorm.DB) EmbeddingRepository {
	return &embeddingRepository{db: db}
}

// BatchCreate 批量创建向量记录。任何写入错误都会中止整批并原样返回。
func (r *embeddingRepository) BatchCreate(embeddings []*model.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	return r.db.CreateInBatches(embeddings, 100).Error // 每100条记录一批
}

// DeleteByDocumentID 删除某个文档的全部向量记录（重新索引前的幂等清理）。
func (r *embeddingRepository) DeleteByDocumentID(documentID uint) error {
	return r.db.Where("document_id = ?", documentID).Delete(&model.Embedding{}).Error
}

// SearchNearest 在指定用户的文档范围内做余弦距离检索，按距离升序取前 topK 条。
// 距离计算与排序都下推到 pgvector 的索引，应用层不做线性扫描。
func (r *embeddingRepository) SearchNearest(ctx context.Context, queryVector pgvector.Vector, userID uint, topK int) ([]NearestEmbedding, error) {
	var results []NearestEmbedding
	err := r.db.WithContext(ctx).
		Table("embeddings").
		Select("embeddings.text, embeddings.metadata, embeddings.document_id, (embeddings.vector <=> ?) AS cosine_distance", queryVector).
		Joins("JOIN documents ON documents.id = embeddings.document_id").
		Where("documents.user_id = ?", userID).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embeddings.vector <=> ?", Vars: []interface{}{queryVector}},
		}).
		Limit(topK).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
