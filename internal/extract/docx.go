package extract

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	paragraphEnd = regexp.MustCompile(`</w:p>|<w:br[^>]*/>|<w:cr[^>]*/>`)
	paraProps    = regexp.MustCompile(`(?s)<w:pPr>.*?</w:pPr>`)
	tabTag       = regexp.MustCompile(`<w:tab(?:\s[^>]*)?/>`)
	anyTag       = regexp.MustCompile(`<[^>]*>`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

func docxText(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer r.Close()

	return stripWordML(r.Editable().GetContent()), nil
}

// stripWordML keeps the text runs of a document.xml body, one line per paragraph.
func stripWordML(content string) string {
	// paragraph properties hold tab stop definitions, not text
	s := paraProps.ReplaceAllString(content, "")
	s = paragraphEnd.ReplaceAllString(s, "\n")
	s = tabTag.ReplaceAllString(s, "\t")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n\n"))
}
