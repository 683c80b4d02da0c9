package extractor

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfLine 是按坐标重组出的一行文本及其最大字号与加粗信息。
type pdfLine struct {
	text    string
	maxSize float64
	bold    bool
}

// extractPDF 逐页逐行解析 PDF，按字号与加粗推断标题层级，
// 并在每行末尾追加当前页的页码标记。
// 底层解析库对畸形文件可能 panic，这里统一转为错误返回。
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var elements []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		marker := fmt.Sprintf(PageMarkerFormat, pageNum)
		for _, line := range assembleLines(page.Content().Text) {
			trimmed := strings.TrimSpace(line.text)
			if trimmed == "" {
				continue
			}
			if level := headingLevel(line.maxSize, line.bold, len(trimmed)); level > 0 {
				elements = append(elements, fmt.Sprintf("%s %s %s", strings.Repeat("#", level), trimmed, marker))
			} else {
				elements = append(elements, fmt.Sprintf("%s %s", trimmed, marker))
			}
		}
	}

	return strings.Join(elements, "\n\n"), nil
}

// assembleLines 将页面上离散的文本片段按 Y 坐标重组为行，
// 并记录行内出现的最大字号与是否包含加粗片段。
func assembleLines(texts []pdf.Text) []pdfLine {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	// PDF 坐标系原点在左下角，Y 越大越靠上。
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	const yTolerance = 0.5

	var (
		lines   []pdfLine
		current pdfLine
		sb      strings.Builder
		lastY   = sorted[0].Y
	)
	flush := func() {
		current.text = sb.String()
		if strings.TrimSpace(current.text) != "" {
			lines = append(lines, current)
		}
		current = pdfLine{}
		sb.Reset()
	}

	for _, t := range sorted {
		if diff := lastY - t.Y; diff > yTolerance || diff < -yTolerance {
			flush()
			lastY = t.Y
		}
		sb.WriteString(t.S)
		if t.FontSize > current.maxSize {
			current.maxSize = t.FontSize
		}
		if strings.Contains(strings.ToLower(t.Font), "bold") {
			current.bold = true
		}
	}
	flush()

	return lines
}

// headingLevel 按行的最大字号、加粗与长度对行分级。
// 返回 1-3 表示标题层级，0 表示正文。
func headingLevel(maxSize float64, bold bool, length int) int {
	short := length < 100
	switch {
	case maxSize > 16 || (bold && maxSize > 14 && short):
		return 1
	case maxSize > 14 || (bold && maxSize > 12 && short):
		return 2
	case maxSize > 12 || (bold && short):
		return 3
	default:
		return 0
	}
}
