package parsing

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	mimeText = "text/plain"
	mimePDF  = "application/pdf"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// kinds maps file extensions and MIME types to the extractor used for them.
var kinds = map[string]string{
	".txt":          mimeText,
	".md":           mimeText,
	".text":         mimeText,
	mimeText:        mimeText,
	"text/markdown": mimeText,
	".pdf":          mimePDF,
	mimePDF:         mimePDF,
	".docx":         mimeDocx,
	mimeDocx:        mimeDocx,
}

var (
	paragraphEndRe = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTagRe       = regexp.MustCompile(`<[^>]+>`)
)

// SupportedFile reports whether ExtractText can read a file with this name.
func SupportedFile(name string) bool {
	_, ok := kinds[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ExtractText returns the plain text of a document. kind is a file extension
// (".pdf") or a MIME type ("application/pdf").
func ExtractText(kind string, data []byte) (string, error) {
	switch kinds[strings.ToLower(strings.TrimSpace(kind))] {
	case mimeText:
		return string(data), nil
	case mimePDF:
		return extractPDFText(data)
	case mimeDocx:
		return extractDocxText(data)
	default:
		return "", &UnsupportedFileError{Kind: kind}
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return docxXMLToText(doc.Editable().GetContent()), nil
}

// docxXMLToText flattens WordprocessingML into lines, one per paragraph.
func docxXMLToText(content string) string {
	content = paragraphEndRe.ReplaceAllStringFunc(content, func(tag string) string {
		if tag == "<w:tab/>" {
			return " "
		}
		return "\n"
	})
	content = html.UnescapeString(xmlTagRe.ReplaceAllString(content, ""))

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
