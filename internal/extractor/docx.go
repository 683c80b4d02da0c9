package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// documentXML 对应 word/document.xml 的结构。
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Properties struct {
		Style struct {
			Val string `xml:"val,attr"`
		} `xml:"pStyle"`
	} `xml:"pPr"`
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []struct {
		Content string `xml:",chardata"`
	} `xml:"t"`
}

// extractDOCX 解析 DOCX（zip 包内的 word/document.xml），
// 样式名形如 Heading<k> 的段落产出 k 个 # 前缀，其余段落为正文。
// DOCX 没有固定分页，因此不产生页码标记。
func extractDOCX(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	content, err := readArchiveFile(reader, "word/document.xml")
	if err != nil {
		return "", err
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}

	var elements []string
	for _, para := range doc.Body.Paragraphs {
		text := strings.TrimSpace(paragraphText(para))
		if text == "" {
			continue
		}
		if level, ok := headingStyleLevel(para.Properties.Style.Val); ok {
			elements = append(elements, strings.Repeat("#", level)+" "+text)
		} else {
			elements = append(elements, text)
		}
	}

	return strings.Join(elements, "\n\n"), nil
}

// paragraphText 拼接段落内所有 run 的文本。
func paragraphText(para docxParagraph) string {
	var sb strings.Builder
	for _, run := range para.Runs {
		for _, t := range run.Text {
			sb.WriteString(t.Content)
		}
	}
	return sb.String()
}

// headingStyleLevel 从样式名解析标题层级。
// 样式名以 Heading 开头即视为标题，层级取其后的整数，解析失败按 1 处理。
func headingStyleLevel(styleName string) (int, bool) {
	if !strings.HasPrefix(styleName, "Heading") {
		return 0, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(styleName, "Heading"))
	level, err := strconv.Atoi(rest)
	if err != nil || level < 1 {
		level = 1
	}
	return level, true
}

// readArchiveFile 从 zip 包中读取指定文件的全部内容。
func readArchiveFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return content, nil
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
