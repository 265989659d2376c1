package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"quantumelodic/internal/config"
)

// MinioStore implements ObjectStore against an S3-compatible provider.
type MinioStore struct {
	client *minio.Client
	region string
}

// NewMinioStore creates a MinIO client from the Config.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
		Region: cfg.Storage.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &MinioStore{client: client, region: cfg.Storage.Region}, nil
}

func (m *MinioStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", bucket, err)
		}
	}
	return nil
}

func (m *MinioStore) List(ctx context.Context, bucket, search string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for obj := range m.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list bucket %s: %w", bucket, obj.Err)
		}
		if search != "" && !strings.Contains(obj.Key, search) {
			continue
		}
		objects = append(objects, ObjectInfo{
			Name:      obj.Key,
			Size:      obj.Size,
			CreatedAt: obj.LastModified,
		})
	}
	return objects, nil
}

func (m *MinioStore) Put(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := m.client.PutObject(ctx, bucket, name, body, size, opts); err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, name, err)
	}
	return nil
}

func (m *MinioStore) Remove(ctx context.Context, bucket, name string) error {
	if err := m.client.RemoveObject(ctx, bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s/%s: %w", bucket, name, err)
	}
	return nil
}

func (m *MinioStore) PresignGet(ctx context.Context, bucket, name string, ttl time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, bucket, name, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object %s/%s: %w", bucket, name, err)
	}
	return u.String(), nil
}

// Get fetches the full object body. Used by the analysis worker.
func (m *MinioStore) Get(ctx context.Context, bucket, name string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, name, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, name, err)
	}
	return data, nil
}
