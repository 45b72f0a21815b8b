package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
)

type gcsStore struct {
	log    *logger.Logger
	bucket *gcstorage.BucketHandle
}

func newGCSStore(log *logger.Logger, bucket string) (Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("storage mode gcs requires STORAGE_GCS_BUCKET")
	}

	ctx := context.Background()
	var opts []option.ClientOption
	if creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init gcs client: %w", err)
	}
	return &gcsStore{
		log:    log.With("storage", "gcs"),
		bucket: client.Bucket(bucket),
	}, nil
}

func (s *gcsStore) Save(ctx context.Context, filename string, r io.Reader) error {
	w := s.bucket.Object(filename).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gcs object %s: %w", filename, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gcs object %s: %w", filename, err)
	}
	return nil
}

func (s *gcsStore) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	r, err := s.bucket.Object(filename).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gcs object %s: %w", filename, err)
	}
	return r, nil
}

func (s *gcsStore) Delete(ctx context.Context, filename string) error {
	err := s.bucket.Object(filename).Delete(ctx)
	if err != nil && err != gcstorage.ErrObjectNotExist {
		return fmt.Errorf("delete gcs object %s: %w", filename, err)
	}
	return nil
}
