package model

// Chunk 是检索的基本单元：一段清洗后的文本加上结构化元数据。
// 它是流水线各阶段之间唯一的分块表示，不落库，由向量存储消费后即丢弃。
//
// Metadata 最多包含以下键：
//   - source:   来源文件名
//   - type:     文件类型 (pdf/docx/md)
//   - h1, h2:   切分时捕获的标题
//   - page:     分块内出现的最小页码
//   - split_id: 分块在其标题段内的 0 起始序号
// 各阶段只能在自己的拷贝上扩展元数据，禁止修改上游共享的 map。
type Chunk struct {
	Text     string
	Metadata map[string]any
}
