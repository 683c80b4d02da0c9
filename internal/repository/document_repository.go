// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"gorm.io/gorm"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/model"
)

// DocumentRepository 接口定义了文档记录相关的数据持久化操作。
type DocumentRepository interface {
	Create(doc *model.Document) error
	Update(doc *model.Document) error
	GetByID(id uint) (*model.Document, error)
	GetByFilenameAndUser(filename string, userID uint) (*model.Document, error)
	FindByUserID(userID uint) ([]model.Document, error)
	CountByUserID(userID uint) (int64, error)
	UpdateStatus(id uint, status string) error
	UpdateProcessingResult(id uint, chunksCount int, status string, indexingCost *float64) error
	Delete(id uint) error
}

// documentRepository 是 DocumentRepository 接口的 GORM 实现。
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 在数据库中创建一个新的文档记录。
func (r *documentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

// Update 整体更新文档记录。
func (r *documentRepository) Update(doc *model.Document) error {
	return r.db.Save(doc).Error
}

// GetByID 根据主键检索文档记录。
func (r *documentRepository) GetByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByFilenameAndUser 根据文件名与归属用户检索文档记录。
// 文件名在用户范围内唯一，最多命中一条。
func (r *documentRepository) GetByFilenameAndUser(filename string, userID uint) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("filename = ? AND user_id = ?", filename, userID).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByUserID 按上传时间倒序返回用户的全部文档。
func (r *documentRepository) FindByUserID(userID uint) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Where("user_id = ?", userID).Order("upload_date DESC").Find(&docs).Error
	return docs, err
}

// CountByUserID 统计用户的文档数。
func (r *documentRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Document{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// UpdateStatus 更新文档的生命周期状态。
func (r *documentRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&model.Document{}).Where("id = ?", id).Update("status", status).Error
}

// UpdateProcessingResult 回写一次摄取的完整结果：分块数、状态与可选的索引成本。
func (r *documentRepository) UpdateProcessingResult(id uint, chunksCount int, status string, indexingCost *float64) error {
	updates := map[string]any{
		"chunks_count": chunksCount,
		"status":       status,
	}
	if indexingCost != nil {
		updates["indexing_cost"] = *indexingCost
	}
	return r.db.Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error
}

// Delete 删除文档记录，依附的向量记录由外键级联删除。
func (r *documentRepository) Delete(id uint) error {
	return r.db.Delete(&model.Document{}, id).Error
}
