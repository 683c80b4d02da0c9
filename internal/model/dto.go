package model

// RetrievedChunk 定义了检索阶段返回的单条结果。
// RelevanceScore 是经过分段线性重映射后的 0-100 相关度；
// CosineDistance 是原始余弦距离，越小越相似。
type RetrievedChunk struct {
	Text           string         `json:"text"`
	Metadata       map[string]any `json:"metadata"`
	DocumentID     uint           `json:"document_id"`
	RelevanceScore float64        `json:"relevance_score"`
	CosineDistance float64        `json:"cosine_distance"`
}

// IndexResult 定义了单个文档在一次摄取批次中的处理结果。
// 批次内各文档互相隔离，一个文档失败不影响其余文档。
type IndexResult struct {
	DocumentID       uint   `json:"document_id"`
	Filename         string `json:"filename,omitempty"`
	Status           string `json:"status"` // processed | failed
	ChunksCount      int    `json:"chunks_count,omitempty"`
	EmbeddingsStored int    `json:"embeddings_stored,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// AskResponse 定义了问答接口的响应结构。
// Sources 原样透传检索结果，生成环节不得修改。
type AskResponse struct {
	Answer  string           `json:"answer"`
	Sources []RetrievedChunk `json:"sources"`
}

// DocumentListResponse 定义了文档列表接口的响应结构。
type DocumentListResponse struct {
	Total     int64      `json:"total"`
	Documents []Document `json:"documents"`
}
