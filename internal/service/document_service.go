package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/apperr"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/extractor"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/model"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/repository"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/log"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/tasks"
)

// DocumentStorage 是文档服务依赖的对象存储窄契约。
type DocumentStorage interface {
	Upload(ctx context.Context, data []byte, objectPath, contentType string) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// TaskQueue 把索引任务投递到后台消费者。
type TaskQueue interface {
	ProduceIndexTask(ctx context.Context, task tasks.DocumentIndexTask) error
}

// BatchIndexer 同步执行一批文档的摄取。
type BatchIndexer interface {
	ProcessBatch(ctx context.Context, documentIDs []uint) []model.IndexResult
}

// DocumentService 接口定义了文档生命周期相关的业务逻辑。
type DocumentService interface {
	Upload(ctx context.Context, userID uint, files []*multipart.FileHeader) ([]model.IndexResult, error)
	Index(ctx context.Context, userID uint, documentIDs []uint) ([]model.IndexResult, error)
	List(ctx context.Context, userID uint) (*model.DocumentListResponse, error)
	Get(ctx context.Context, userID uint, documentID uint) (*model.Document, error)
	Delete(ctx context.Context, userID uint, documentID uint) error
}

type documentService struct {
	docRepo   repository.DocumentRepository
	storage   DocumentStorage
	queue     TaskQueue
	indexer   BatchIndexer
	extractor *extractor.Extractor
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(
	docRepo repository.DocumentRepository,
	storage DocumentStorage,
	queue TaskQueue,
	indexer BatchIndexer,
	ext *extractor.Extractor,
) DocumentService {
	return &documentService{
		docRepo:   docRepo,
		storage:   storage,
		queue:     queue,
		indexer:   indexer,
		extractor: ext,
	}
}

// Upload 把多个文件上传到对象存储、登记文档记录并投递索引任务。
// 单个文件失败只记录在它自己的结果里，其余文件继续上传。
func (s *documentService) Upload(ctx context.Context, userID uint, files []*multipart.FileHeader) ([]model.IndexResult, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: missing user id", apperr.ErrInvalidIdentity)
	}

	results := make([]model.IndexResult, 0, len(files))
	for _, fileHeader := range files {
		results = append(results, s.uploadOne(ctx, userID, fileHeader))
	}
	return results, nil
}

func (s *documentService) uploadOne(ctx context.Context, userID uint, fileHeader *multipart.FileHeader) model.IndexResult {
	filename := filepath.Base(fileHeader.Filename)
	log.Infof("[DocumentService] 开始上传文件, userID: %d, filename: %s, size: %d", userID, filename, fileHeader.Size)

	if !s.extractor.Supported(filename) {
		log.Warnf("[DocumentService] 不支持的文件类型: %s", filename)
		return model.IndexResult{
			Filename: filename,
			Status:   model.StatusFailed,
			Reason:   fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return model.IndexResult{Filename: filename, Status: model.StatusFailed, Reason: err.Error()}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return model.IndexResult{Filename: filename, Status: model.StatusFailed, Reason: err.Error()}
	}

	// 1. 上传到对象存储，对象路径按用户隔离
	objectPath := fmt.Sprintf("user_%d/%s", userID, filename)
	if _, err := s.storage.Upload(ctx, data, objectPath, contentTypeFor(filename)); err != nil {
		log.Errorf("[DocumentService] 上传对象存储失败, object: %s: %v", objectPath, err)
		return model.IndexResult{Filename: filename, Status: model.StatusFailed, Reason: err.Error()}
	}

	// 2. 登记或复用文档记录。同名重传视为覆盖：记录回到 uploaded 状态等待重新索引
	doc, err := s.upsertDocument(userID, filename, objectPath, fileHeader.Size)
	if err != nil {
		log.Errorf("[DocumentService] 登记文档记录失败, filename: %s: %v", filename, err)
		return model.IndexResult{Filename: filename, Status: model.StatusFailed, Reason: err.Error()}
	}

	// 3. 投递异步索引任务。投递失败不回滚上传，文档停留在 uploaded 状态可手动触发索引
	task := tasks.DocumentIndexTask{DocumentID: doc.ID, Filename: filename, UserID: userID}
	if err := s.queue.ProduceIndexTask(ctx, task); err != nil {
		log.Warnf("[DocumentService] 投递索引任务失败, DocumentID: %d: %v", doc.ID, err)
	}

	log.Infof("[DocumentService] 文件上传完成, DocumentID: %d, object: %s", doc.ID, objectPath)
	return model.IndexResult{
		DocumentID: doc.ID,
		Filename:   filename,
		Status:     model.StatusUploaded,
	}
}

func (s *documentService) upsertDocument(userID uint, filename, objectPath string, size int64) (*model.Document, error) {
	existing, err := s.docRepo.GetByFilenameAndUser(filename, userID)
	if err == nil {
		existing.ObjectPath = objectPath
		existing.FileSizeBytes = size
		existing.Status = model.StatusUploaded
		existing.ChunksCount = 0
		if err := s.docRepo.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	doc := &model.Document{
		Filename:      filename,
		UserID:        userID,
		ObjectPath:    objectPath,
		FileType:      strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."),
		Status:        model.StatusUploaded,
		FileSizeBytes: size,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Index 对用户名下的一批文档同步执行摄取，返回逐文档结果。
// 不属于该用户的 ID 直接记为失败，不会触碰别人的文档。
func (s *documentService) Index(ctx context.Context, userID uint, documentIDs []uint) ([]model.IndexResult, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: missing user id", apperr.ErrInvalidIdentity)
	}

	owned := make([]uint, 0, len(documentIDs))
	denied := make(map[uint]model.IndexResult)
	for _, id := range documentIDs {
		doc, err := s.docRepo.GetByID(id)
		if err != nil || doc.UserID != userID {
			denied[id] = model.IndexResult{
				DocumentID: id,
				Status:     model.StatusFailed,
				Reason:     fmt.Sprintf("document %d not found", id),
			}
			continue
		}
		owned = append(owned, id)
	}

	processed := make(map[uint]model.IndexResult, len(owned))
	for _, result := range s.indexer.ProcessBatch(ctx, owned) {
		processed[result.DocumentID] = result
	}

	// 结果顺序与请求顺序一致，被拒绝的 ID 停留在原位
	results := make([]model.IndexResult, 0, len(documentIDs))
	for _, id := range documentIDs {
		if result, ok := denied[id]; ok {
			results = append(results, result)
			continue
		}
		results = append(results, processed[id])
	}
	return results, nil
}

// List 返回用户的全部文档，按上传时间倒序。
func (s *documentService) List(ctx context.Context, userID uint) (*model.DocumentListResponse, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: missing user id", apperr.ErrInvalidIdentity)
	}

	docs, err := s.docRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	total, err := s.docRepo.CountByUserID(userID)
	if err != nil {
		return nil, err
	}
	return &model.DocumentListResponse{Total: total, Documents: docs}, nil
}

// Get 返回用户名下的单个文档。越权访问与不存在一律返回未找到，不泄露他人文档的存在性。
func (s *documentService) Get(ctx context.Context, userID uint, documentID uint) (*model.Document, error) {
	doc, err := s.docRepo.GetByID(documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrDocumentNotFound
		}
		return nil, err
	}
	if doc.UserID != userID {
		return nil, apperr.ErrDocumentNotFound
	}
	return doc, nil
}

// Delete 删除文档记录与对象存储里的原文件，向量记录由外键级联清理。
func (s *documentService) Delete(ctx context.Context, userID uint, documentID uint) error {
	doc, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return err
	}

	// 对象存储删除失败不阻塞记录删除，残留对象下次同名上传会被覆盖
	if err := s.storage.Delete(ctx, doc.ObjectPath); err != nil {
		log.Warnf("[DocumentService] 删除对象存储文件失败, object: %s: %v", doc.ObjectPath, err)
	}

	if err := s.docRepo.Delete(doc.ID); err != nil {
		return err
	}
	log.Infof("[DocumentService] 文档已删除, DocumentID: %d, filename: %s", doc.ID, doc.Filename)
	return nil
}

// contentTypeFor 根据扩展名返回对象存储使用的内容类型。
func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".md":
		return "text/markdown"
	default:
		return "application/octet-stream"
	}
}
