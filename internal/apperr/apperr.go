// Package apperr 定义了核心流水线的错误分类。
// 调用方通过 errors.Is 区分错误类别，而不是解析错误文本。
package apperr

import "errors"

var (
	// ErrUnsupportedFileType 表示文件类型不在 pdf/docx/md 之内。
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrNoContent 表示提取阶段没有产出任何内容。
	ErrNoContent = errors.New("no content could be extracted")

	// ErrNoChunks 表示切块阶段没有产出任何分块。
	ErrNoChunks = errors.New("no chunks could be created")

	// ErrEmbeddingService 表示 embedding 服务调用失败。
	// 该错误会中止当前文档的整个向量化批次，不允许部分写入。
	ErrEmbeddingService = errors.New("embedding service failure")

	// ErrRetrievalService 表示相似度检索的基础设施失败。
	// 必须与"没有匹配内容"（空结果）严格区分。
	ErrRetrievalService = errors.New("retrieval service failure")

	// ErrLLMService 表示答案生成协作方调用失败。
	ErrLLMService = errors.New("llm service failure")

	// ErrInvalidIdentity 表示调用方身份缺失或无效，任何流水线工作开始前即被拒绝。
	ErrInvalidIdentity = errors.New("invalid caller identity")

	// ErrDocumentNotFound 表示请求的文档不存在。
	// 他人拥有的文档同样归入此类，避免泄露文档是否存在。
	ErrDocumentNotFound = errors.New("document not found")
)
