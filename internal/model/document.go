// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 文档生命周期状态。上传后由编排器推进：uploaded → processing → processed | failed。
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusFailed     = "failed"
)

// Document 对应于数据库中的 documents 表。
// 每个文档归属一个用户，文件名在该用户范围内唯一。
type Document struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_owner_filename" json:"filename"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_owner_filename;index" json:"userId"`
	ObjectPath    string    `gorm:"type:varchar(512)" json:"objectPath"`
	FileType      string    `gorm:"type:varchar(10);not null" json:"fileType"` // pdf, docx, md
	Status        string    `gorm:"type:varchar(20);not null;default:uploaded" json:"status"`
	ChunksCount   int       `gorm:"not null;default:0" json:"chunksCount"`
	FileSizeBytes int64     `gorm:"default:0" json:"fileSizeBytes"`
	IndexingCost  *float64  `gorm:"type:numeric" json:"indexingCost,omitempty"`
	UploadDate    time.Time `gorm:"autoCreateTime" json:"uploadDate"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// 文档独占其向量记录，删除文档时级联删除。
	Embeddings []Embedding `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}
