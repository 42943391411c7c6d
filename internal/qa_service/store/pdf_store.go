package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"

	"DocTalk/pkg/logger"
)

// PDFStore keeps the raw uploaded PDF bytes in MinIO. The object name is what
// gets recorded as the room's file path.
type PDFStore struct {
	client *minio.Client
	bucket string
	log    logger.Logger
}

// NewPDFStore creates a PDFStore writing into the given bucket.
func NewPDFStore(client *minio.Client, bucket string, log logger.Logger) *PDFStore {
	return &PDFStore{client: client, bucket: bucket, log: log}
}

// Put stores the PDF under objectName and returns the stored object name.
func (s *PDFStore) Put(ctx context.Context, objectName string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/pdf"},
	)
	if err != nil {
		return "", fmt.Errorf("put object %s into bucket %s: %w", objectName, s.bucket, err)
	}
	s.log.Info(fmt.Sprintf("Stored PDF object %s in bucket %s (%d bytes)", objectName, s.bucket, len(data)))
	return objectName, nil
}
