package model

import (
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Embedding 对应于数据库中的 embeddings 表。
// 向量列的维度是系统级固定值，必须与 embedding 模型的输出宽度一致。
type Embedding struct {
	ID         uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	Vector     pgvector.Vector   `gorm:"type:vector(1024);not null" json:"-"`
	Text       string            `gorm:"type:text;not null" json:"text"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	DocumentID uint              `gorm:"not null;index" json:"documentId"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Embedding) TableName() string {
	return "embeddings"
}
