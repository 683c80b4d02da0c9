// Package extractor 将原始文件字节转换为带标题层级与页码标记的结构化文本。
//
// 每种格式一个解析器：PDF 按字号/加粗推断标题层级并嵌入页码标记，
// DOCX 按段落样式推断标题层级，Markdown 原样透传。
// 单个文件解析失败只影响该文件：返回空结果与错误原因，绝不让异常穿出流水线边界。
package extractor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/apperr"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/log"
)

// Unit 是提取阶段的输出：一段结构化文本加上来源元数据。
// Metadata 固定携带 source（文件名）与 type（pdf/docx/md）两个键。
type Unit struct {
	Text     string
	Metadata map[string]any
}

// PageMarkerFormat 是嵌入结构化文本的页码标记格式，n 为 1 起始页码。
// 标记只为了在第一阶段切分中存活，最终分块定稿前必须被完全剥离。
const PageMarkerFormat = "<!--PAGE_%d-->"

// Extractor 按文件类型分派到对应的格式解析器。
type Extractor struct{}

// New 创建一个新的 Extractor 实例。
func New() *Extractor {
	return &Extractor{}
}

// Supported 判断文件类型是否在支持范围内。
func (e *Extractor) Supported(filename string) bool {
	switch normalizeExt(filename) {
	case "pdf", "docx", "md":
		return true
	}
	return false
}

// Extract 将单个文件的字节解析为结构化文本单元序列。
// 不支持的类型与解析失败都以错误返回给编排器，由编排器决定文档状态；
// 本函数不会 panic，一个坏文件不会中断多文件批次。
func (e *Extractor) Extract(filename string, data []byte) ([]Unit, error) {
	ext := normalizeExt(filename)

	var (
		text string
		err  error
	)
	switch ext {
	case "pdf":
		text, err = extractPDF(data)
	case "docx":
		text, err = extractDOCX(data)
	case "md":
		text, err = extractMarkdown(data)
	default:
		log.Warnf("[Extractor] 不支持的文件类型: %s", filename)
		return nil, fmt.Errorf("%w: .%s", apperr.ErrUnsupportedFileType, ext)
	}
	if err != nil {
		log.Errorf("[Extractor] 解析文件失败, file: %s, error: %v", filename, err)
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}

	return []Unit{{
		Text: text,
		Metadata: map[string]any{
			"source": filepath.Base(filename),
			"type":   ext,
		},
	}}, nil
}

// normalizeExt 返回小写、不带点的扩展名。
func normalizeExt(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
