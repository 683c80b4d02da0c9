// Package pipeline 定义了文档摄取的核心流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/apperr"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/chunker"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/extractor"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/model"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/repository"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/log"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/tasks"
)

// ObjectStorage 是编排器依赖的对象存储窄契约。
type ObjectStorage interface {
	Download(ctx context.Context, objectPath string) ([]byte, error)
	Delete(ctx context.Context, objectPath string) error
}

// Processor 封装了文档摄取的所有依赖和逻辑：
// 下载 → 提取 → 切块 → 向量化落库 → 回写状态。
type Processor struct {
	storage         ObjectStorage
	extractor       *extractor.Extractor
	chunker         *chunker.Chunker
	store           *EmbeddingStore
	docRepo         repository.DocumentRepository
	pricePerMTokens float64
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	storage ObjectStorage,
	ext *extractor.Extractor,
	ck *chunker.Chunker,
	store *EmbeddingStore,
	docRepo repository.DocumentRepository,
	pricePerMTokens float64,
) *Processor {
	return &Processor{
		storage:         storage,
		extractor:       ext,
		chunker:         ck,
		store:           store,
		docRepo:         docRepo,
		pricePerMTokens: pricePerMTokens,
	}
}

// ProcessBatch 依次摄取一批文档，返回逐文档的处理结果。
// 文档之间严格隔离：单个文档失败只影响它自己的状态，批次继续执行；
// 顺序处理同时约束了内存占用——任意时刻只有一个文档的分块和向量在途。
func (p *Processor) ProcessBatch(ctx context.Context, documentIDs []uint) []model.IndexResult {
	results := make([]model.IndexResult, 0, len(documentIDs))
	for _, id := range documentIDs {
		results = append(results, p.ProcessOne(ctx, id))
	}
	return results
}

// ProcessOne 摄取单个文档并返回处理结果。
func (p *Processor) ProcessOne(ctx context.Context, documentID uint) model.IndexResult {
	log.Infof("[Processor] 开始处理文档, DocumentID: %d", documentID)

	doc, err := p.docRepo.GetByID(documentID)
	if err != nil {
		log.Errorf("[Processor] 文档不存在, DocumentID: %d, Error: %v", documentID, err)
		return model.IndexResult{
			DocumentID: documentID,
			Status:     model.StatusFailed,
			Reason:     fmt.Sprintf("document %d not found", documentID),
		}
	}

	if err := p.docRepo.UpdateStatus(doc.ID, model.StatusProcessing); err != nil {
		log.Warnf("[Processor] 标记 processing 状态失败, DocumentID: %d: %v", doc.ID, err)
	}

	chunksCount, stored, err := p.ingest(ctx, doc)
	if err != nil {
		log.Errorf("[Processor] 文档摄取失败, DocumentID: %d, Filename: %s, Error: %v", doc.ID, doc.Filename, err)
		if updateErr := p.docRepo.UpdateStatus(doc.ID, model.StatusFailed); updateErr != nil {
			log.Errorf("[Processor] 标记 failed 状态失败, DocumentID: %d: %v", doc.ID, updateErr)
		}
		return model.IndexResult{
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			Status:     model.StatusFailed,
			Reason:     err.Error(),
		}
	}

	log.Infof("[Processor] 文档处理成功完成, DocumentID: %d, 分块数: %d", doc.ID, chunksCount)
	return model.IndexResult{
		DocumentID:       doc.ID,
		Filename:         doc.Filename,
		Status:           model.StatusProcessed,
		ChunksCount:      chunksCount,
		EmbeddingsStored: stored,
	}
}

// ingest 执行提取、切块与向量化落库，成功时回写完整处理结果。
func (p *Processor) ingest(ctx context.Context, doc *model.Document) (chunksCount, stored int, err error) {
	// 1. 从对象存储下载到临时缓冲区，处理结束即丢弃
	log.Infof("[Processor] 步骤1: 从对象存储下载文件, Object: %s", doc.ObjectPath)
	data, err := p.storage.Download(ctx, doc.ObjectPath)
	if err != nil {
		return 0, 0, fmt.Errorf("download %s: %w", doc.ObjectPath, err)
	}
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("%w: %s is empty", apperr.ErrNoContent, doc.Filename)
	}

	// 2. 结构化提取
	log.Infof("[Processor] 步骤2: 提取结构化文本, FileType: %s", doc.FileType)
	units, err := p.extractor.Extract(doc.Filename, data)
	if err != nil {
		return 0, 0, err
	}
	if len(units) == 0 {
		return 0, 0, fmt.Errorf("%w: %s", apperr.ErrNoContent, doc.Filename)
	}

	// 3. 两阶段切块
	chunks := p.chunker.ChunkUnits(units)
	log.Infof("[Processor] 步骤3: 切块完成, 共生成 %d 个分块", len(chunks))
	if len(chunks) == 0 {
		return 0, 0, fmt.Errorf("%w: %s", apperr.ErrNoChunks, doc.Filename)
	}

	// 4. 批量向量化并落库
	stored, err = p.store.EmbedAndStore(ctx, chunks, doc.ID)
	if err != nil {
		return 0, 0, err
	}

	// 5. 回写处理结果与索引成本
	cost := p.indexingCost(chunks)
	if err := p.docRepo.UpdateProcessingResult(doc.ID, len(chunks), model.StatusProcessed, cost); err != nil {
		return 0, 0, fmt.Errorf("update processing result for document %d: %w", doc.ID, err)
	}

	return len(chunks), stored, nil
}

// indexingCost 按 tokens-per-million 单价估算本次向量化的成本。
// 未配置单价时返回 nil，文档记录上的成本字段保持为空。
func (p *Processor) indexingCost(chunks []model.Chunk) *float64 {
	if p.pricePerMTokens <= 0 {
		return nil
	}
	totalTokens := 0
	for _, chunk := range chunks {
		totalTokens += p.chunker.CountTokens(chunk.Text)
	}
	cost := float64(totalTokens) / 1_000_000 * p.pricePerMTokens
	return &cost
}

// Process 实现 kafka.TaskProcessor，供后台消费者调用。
// 返回错误表示任务失败，消费者据此决定是否重试。
func (p *Processor) Process(ctx context.Context, task tasks.DocumentIndexTask) error {
	result := p.ProcessOne(ctx, task.DocumentID)
	if result.Status == model.StatusFailed {
		return errors.New(result.Reason)
	}
	return nil
}
