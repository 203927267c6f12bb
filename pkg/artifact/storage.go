package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/goosemania/pulp-2to3-migrate/pkg/config"
)

// Storage keeps artifact files under slash separated keys.
type Storage interface {
	Save(ctx context.Context, key string, r io.ReadSeeker) error
	Exists(ctx context.Context, key string) (bool, error)
}

type FileSystemStorage struct {
	root string
}

func NewFileSystemStorage(root string) *FileSystemStorage {
	return &FileSystemStorage{root: root}
}

func (s *FileSystemStorage) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Save writes to a temporary file next to the destination and renames it into place.
func (s *FileSystemStorage) Save(_ context.Context, key string, r io.ReadSeeker) error {
	destination := s.path(key)

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destination), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", key, err)
	}

	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()

		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), destination); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", key, err)
	}

	return nil
}

func (s *FileSystemStorage) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
}

// S3API is the part of the S3 client the storage uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type S3Storage struct {
	client S3API
	bucket string
	prefix string
}

func NewS3StorageWithClient(client S3API, bucket, prefix string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// NewS3Storage builds a client from the default AWS credential chain.
// A custom endpoint switches to path style addressing, as S3 compatible stores expect.
func NewS3Storage(ctx context.Context, cfg config.StorageConfig) (*S3Storage, error) {
	options := make([]func(*awsconfig.LoadOptions) error, 0, 1)
	if cfg.S3Region != "" {
		options = append(options, awsconfig.WithRegion(cfg.S3Region))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3StorageWithClient(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

func (s *S3Storage) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}

	return path.Join(s.prefix, key)
}

func (s *S3Storage) Save(ctx context.Context, key string, r io.ReadSeeker) error {
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   r,
	}); err != nil {
		return fmt.Errorf("failed to upload %s to bucket %s: %w", key, s.bucket, err)
	}

	return nil
}

func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}

	return false, fmt.Errorf("failed to look up %s in bucket %s: %w", key, s.bucket, err)
}

// NewStorage returns the storage backend selected by the configuration.
//
//nolint:ireturn
func NewStorage(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case config.StorageBackendS3:
		storage, err := NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, err
		}

		return storage, nil
	case config.StorageBackendFileSystem, "":
		return NewFileSystemStorage(cfg.MediaRoot), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
