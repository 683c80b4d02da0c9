// Package chunker 将结构化文本切分为可检索的分块。
//
// 切分分两个阶段：先按一、二级标题边界做结构切分并捕获 h1/h2，
// 再按 token 预算切分以保证不超过 embedding 服务的输入上限。
// 切分是输入与配置的纯函数，相同输入永远产出相同的分块序列。
package chunker

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/extractor"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/model"
)

const (
	// DefaultChunkSize 是单个分块的 token 预算上限。
	DefaultChunkSize = 2000
	// DefaultChunkOverlap 是相邻分块之间的重叠 token 数。
	DefaultChunkOverlap = 10

	encodingName = "cl100k_base"
)

var (
	pageMarkerRe      = regexp.MustCompile(`<!--PAGE_(\d+)-->`)
	pageMarkerCleanRe = regexp.MustCompile(`\s*<!--PAGE_\d+-->`)

	loaderOnce sync.Once
)

// Chunker 持有切分配置与 tokenizer。
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	encoder      *tiktoken.Tiktoken
}

// New 创建一个 Chunker。chunkSize/chunkOverlap 传 0 时使用默认值。
// tokenizer 使用离线加载的 BPE 词表，与 embedding 模型的计数方式保持一致。
func New(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	// 极小的 chunkSize 下默认重叠仍可能不小于预算，必须保证切分步长为正
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 10
	}

	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktokenloader.NewOfflineLoader())
	})
	encoder, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, err
	}

	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		encoder:      encoder,
	}, nil
}

// ChunkUnits 将提取单元序列切分为最终分块序列，保持文档顺序。
// 页码标记在这里被彻底剥离：最终分块的文本与 h1/h2 元数据中不会再出现标记，
// 标记携带的页码信息收敛为 metadata["page"]（分块内最小页码）。
// 剥离后文本为空的分块会被过滤，不进入向量化。
func (c *Chunker) ChunkUnits(units []extractor.Unit) []model.Chunk {
	var chunks []model.Chunk

	for _, unit := range units {
		for _, sec := range splitByHeaders(unit.Text) {
			fragments := c.splitByTokens(sec.content)
			for i, fragment := range fragments {
				chunk, ok := finalizeChunk(fragment, i, unit.Metadata, sec)
				if ok {
					chunks = append(chunks, chunk)
				}
			}
		}
	}

	return chunks
}

// CountTokens 返回文本按参考 tokenizer 计数的 token 数。
func (c *Chunker) CountTokens(text string) int {
	return len(c.encoder.Encode(text, nil, nil))
}

// section 是结构切分的产物：一段正文与切分路径上捕获的标题。
type section struct {
	h1, h2  string
	content string
}

// splitByHeaders 按一、二级标题边界切分结构化文本。
// 标题行本身进入元数据而非正文；更深层级的标题（###…）按正文处理。
// 新的一级标题会同时清空已捕获的二级标题。
func splitByHeaders(text string) []section {
	var (
		sections []section
		h1, h2   string
		body     []string
	)
	flush := func() {
		if len(body) == 0 {
			return
		}
		sections = append(sections, section{h1: h1, h2: h2, content: strings.Join(body, "\n")})
		body = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "# "):
			flush()
			h1 = strings.TrimSpace(line[2:])
			h2 = ""
		case strings.HasPrefix(line, "## ") && !strings.HasPrefix(line, "###"):
			flush()
			h2 = strings.TrimSpace(line[3:])
		case line == "":
			// 空行不进入正文
		default:
			body = append(body, line)
		}
	}
	flush()

	return sections
}

// splitByTokens 将一段正文按 token 预算切分为若干片段，相邻片段带固定重叠。
func (c *Chunker) splitByTokens(text string) []string {
	ids := c.encoder.Encode(text, nil, nil)
	if len(ids) == 0 {
		return nil
	}
	if len(ids) <= c.chunkSize {
		return []string{text}
	}

	var fragments []string
	step := c.chunkSize - c.chunkOverlap
	for start := 0; start < len(ids); start += step {
		end := start + c.chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		fragments = append(fragments, c.encoder.Decode(ids[start:end]))
		if end == len(ids) {
			break
		}
	}
	return fragments
}

// finalizeChunk 对单个片段做定稿处理：提取并剥离页码标记、清洗标题元数据、
// 写入最小页码和 split_id。剥离后没有正文的片段返回 ok=false。
func finalizeChunk(fragment string, splitID int, base map[string]any, sec section) (model.Chunk, bool) {
	pages := extractPages(fragment)
	text := strings.TrimSpace(pageMarkerCleanRe.ReplaceAllString(fragment, ""))
	if text == "" {
		return model.Chunk{}, false
	}

	metadata := make(map[string]any, len(base)+4)
	for k, v := range base {
		metadata[k] = v
	}
	if sec.h1 != "" {
		metadata["h1"] = stripMarkers(sec.h1)
	}
	if sec.h2 != "" {
		metadata["h2"] = stripMarkers(sec.h2)
	}
	if len(pages) > 0 {
		metadata["page"] = minInt(pages)
	}
	metadata["split_id"] = splitID

	return model.Chunk{Text: text, Metadata: metadata}, true
}

// extractPages 提取片段中所有页码标记携带的页码。
func extractPages(text string) []int {
	var pages []int
	for _, match := range pageMarkerRe.FindAllStringSubmatch(text, -1) {
		if page, err := strconv.Atoi(match[1]); err == nil {
			pages = append(pages, page)
		}
	}
	return pages
}

// stripMarkers 剥离标题文本中残留的页码标记（标题行恰好结束一页时会携带标记）。
func stripMarkers(s string) string {
	return strings.TrimSpace(pageMarkerCleanRe.ReplaceAllString(s, ""))
}

func minInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
