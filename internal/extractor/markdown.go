package extractor

import "strings"

// extractMarkdown 原样透传 Markdown 内容，仅逐行去除行尾空白。
// 标题已由作者显式标注，无需推断。
func extractMarkdown(data []byte) (string, error) {
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
