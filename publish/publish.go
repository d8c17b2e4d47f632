// Package publish uploads a rebuilt repo.db and repo.json to an
// S3-compatible object store.
package publish

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/input-output-hk/reposync/errors"
	"github.com/input-output-hk/reposync/fs"
	"github.com/input-output-hk/reposync/fs/billy"
	"github.com/input-output-hk/reposync/rebuild"
)

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

// artifacts are uploaded in this order. The manifest goes last so a reader
// that sees a new repo.json also finds the matching database.
var artifacts = []struct {
	name        string
	contentType string
}{
	{rebuild.DatabaseFile, "application/vnd.sqlite3"},
	{rebuild.ManifestFile, "application/json"},
}

// Config locates the bucket artifacts are published to.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// objectStore is the subset of *minio.Client the store uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Store publishes rebuild artifacts. It implements rebuild.Publisher.
type Store struct {
	client objectStore
	fs     fs.Filesystem
	bucket string
	prefix string
	region string
	logger *slog.Logger

	initOnce sync.Once
	initErr  error
}

var _ rebuild.Publisher = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for upload progress.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithFilesystem sets the filesystem artifacts are read from.
// Defaults to the native filesystem.
func WithFilesystem(fsys fs.Filesystem) Option {
	return func(s *Store) {
		s.fs = fsys
	}
}

// New returns a Store for cfg.
func New(cfg Config, opts ...Option) (*Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "s3 access key and secret key are required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = DefaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "failed to create s3 client")
	}

	cfg.Region = region
	return newStore(client, cfg, opts...)
}

func newStore(client objectStore, cfg Config, opts ...Option) (*Store, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "s3 bucket is required")
	}

	s := &Store{
		client: client,
		fs:     billy.NewBaseOSFS(),
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
		region: cfg.Region,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Publish uploads repo.db and then repo.json from outputDir.
func (s *Store) Publish(ctx context.Context, outputDir string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return errors.WrapWithContext(err, errors.CodeNetwork, "failed to prepare bucket",
			map[string]interface{}{"bucket": s.bucket})
	}

	for _, a := range artifacts {
		if err := s.put(ctx, filepath.Join(outputDir, a.name), a.name, a.contentType); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) put(ctx context.Context, file, name, contentType string) error {
	data, err := s.fs.ReadFile(file)
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeIO, "failed to read artifact",
			map[string]interface{}{"path": file})
	}

	key := s.objectKey(name)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.WrapWithContext(err, errors.CodeNetwork, "failed to upload artifact",
			map[string]interface{}{"bucket": s.bucket, "key": key})
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "published",
			"bucket", s.bucket,
			"key", key,
			"bytes", len(data),
		)
	}
	return nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *Store) objectKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}
