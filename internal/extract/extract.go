package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
)

// Error marks a document that could not be turned into text.
type Error struct {
	Filename string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Filename, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var ErrUnsupportedType = fmt.Errorf("unsupported file type, expected .pdf or .docx")

// Extractor converts an uploaded document into plain text.
type Extractor interface {
	Extract(filename string, data []byte) (string, error)
}

type extractor struct{}

func New() Extractor {
	return &extractor{}
}

// KindOf decides the document type from the file extension.
func KindOf(filename string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF, true
	case ".docx":
		return KindDOCX, true
	default:
		return "", false
	}
}

func (x *extractor) Extract(filename string, data []byte) (string, error) {
	kind, ok := KindOf(filename)
	if !ok {
		return "", &Error{Filename: filename, Err: ErrUnsupportedType}
	}

	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text, err = pdfText(data)
	case KindDOCX:
		text, err = docxText(data)
	}
	if err != nil {
		return "", &Error{Filename: filename, Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &Error{Filename: filename, Err: fmt.Errorf("no text found")}
	}
	return text, nil
}
