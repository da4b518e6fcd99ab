package storage

import (
	"context"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSUploader struct {
	client *gcs.Client
	bucket string
}

// NewGCSUploader uses application default credentials unless credentialsFile is set.
func NewGCSUploader(ctx context.Context, bucket, credentialsFile string) (*GCSUploader, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSUploader{client: c, bucket: bucket}, nil
}

func (u *GCSUploader) Close() error { return u.client.Close() }

func (u *GCSUploader) Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (string, error) {
	w := u.client.Bucket(u.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	// resumes are private; the row keeps the object key, not a public URL
	return "gs://" + u.bucket + "/" + objectName, nil
}
