package storage

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Uploader archives original resume files. It returns the key the object was stored under.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
	Close() error
}

// ResumeObjectName builds resumes/<userID>/<jobID>/<uuid><ext>.
func ResumeObjectName(userID, jobID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("resumes", userID, jobID, uuid.NewString()+ext)
}

// ContentType maps supported resume extensions to their MIME type.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
