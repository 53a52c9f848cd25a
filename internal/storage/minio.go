package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"reportforge/internal/config"
)

// Metadata key holding the sha256 content hash recorded at write time.
const contentHashKey = "Content-Hash"

// objectAPI is the narrow slice of the MinIO SDK the client relies on. The
// integrity and lifecycle logic sits above this seam so it stays testable
// without a live object store.
type objectAPI interface {
	put(ctx context.Context, bucket, object string, data []byte, opts minio.PutObjectOptions) error
	read(ctx context.Context, bucket, object string) ([]byte, error)
	stat(ctx context.Context, bucket, object string) (minio.ObjectInfo, error)
	presign(ctx context.Context, bucket, object string, expiry time.Duration) (*url.URL, error)
	remove(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
}

type minioAPI struct {
	client *minio.Client
}

func (m *minioAPI) put(ctx context.Context, bucket, object string, data []byte, opts minio.PutObjectOptions) error {
	_, err := m.client.PutObject(ctx, bucket, object, bytes.NewReader(data), int64(len(data)), opts)
	return err
}

func (m *minioAPI) read(ctx context.Context, bucket, object string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = obj.Close() }()
	return io.ReadAll(obj)
}

func (m *minioAPI) stat(ctx context.Context, bucket, object string) (minio.ObjectInfo, error) {
	return m.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
}

func (m *minioAPI) presign(ctx context.Context, bucket, object string, expiry time.Duration) (*url.URL, error) {
	return m.client.PresignedGetObject(ctx, bucket, object, expiry, nil)
}

func (m *minioAPI) remove(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error {
	return m.client.RemoveObject(ctx, bucket, object, opts)
}

// Client wraps the MinIO SDK with the report artifact access patterns:
// hashed uploads, integrity verification and presigned download links.
type Client struct {
	api        objectAPI
	bucketName string
}

// BlobInfo describes a stored artifact.
type BlobInfo struct {
	Location    string
	ContentHash string
	Size        int64
	MimeType    string
}

// NewClient initializes the MinIO client from configuration and ensures the
// target bucket exists.
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	internalClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := internalClient.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if !cfg.AutoCreateBucket {
			return nil, fmt.Errorf("bucket %q does not exist (auto create disabled)", cfg.Bucket)
		}
		if err := internalClient.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &Client{
		api:        &minioAPI{client: internalClient},
		bucketName: cfg.Bucket,
	}, nil
}

// HashBytes computes the hex-encoded sha256 content hash stored alongside
// every artifact.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Save uploads an artifact under objectName, recording the sha256 of the
// bytes plus caller-supplied metadata on the object. Returns the location id
// (object key) and the stored hash.
func (c *Client) Save(ctx context.Context, objectName string, data []byte, contentType string, metadata map[string]string) (*BlobInfo, error) {
	hash := HashBytes(data)

	userMeta := map[string]string{contentHashKey: hash}
	for k, v := range metadata {
		if strings.TrimSpace(k) == "" {
			continue
		}
		userMeta[k] = v
	}

	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: userMeta,
	}
	if err := c.api.put(ctx, c.bucketName, objectName, data, opts); err != nil {
		return nil, fmt.Errorf("put object %q: %w", objectName, err)
	}

	return &BlobInfo{
		Location:    objectName,
		ContentHash: hash,
		Size:        int64(len(data)),
		MimeType:    contentType,
	}, nil
}

// Get reads the full artifact bytes for a location id.
func (c *Client) Get(ctx context.Context, objectKey string) ([]byte, error) {
	data, err := c.api.read(ctx, c.bucketName, objectKey)
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", objectKey, err)
	}
	return data, nil
}

// VerifyIntegrity re-reads the artifact and compares its recomputed sha256
// against the hash recorded at write time. A missing recorded hash or a
// mismatch both report false; only transport errors surface as err.
func (c *Client) VerifyIntegrity(ctx context.Context, objectKey string) (bool, error) {
	stat, err := c.api.stat(ctx, c.bucketName, objectKey)
	if err != nil {
		return false, fmt.Errorf("stat object %q: %w", objectKey, err)
	}

	recorded := strings.TrimSpace(stat.UserMetadata[contentHashKey])
	if recorded == "" {
		return false, nil
	}

	data, err := c.Get(ctx, objectKey)
	if err != nil {
		return false, err
	}

	return strings.EqualFold(HashBytes(data), recorded), nil
}

// GeneratePresignedURL creates a time-limited download link for an artifact.
func (c *Client) GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error) {
	presignedURL, err := c.api.presign(ctx, c.bucketName, objectKey, duration)
	if err != nil {
		return "", fmt.Errorf("generate presigned url for %q: %w", objectKey, err)
	}
	return presignedURL.String(), nil
}

// Delete removes an artifact. A missing object counts as success.
func (c *Client) Delete(ctx context.Context, objectKey string) error {
	objectKey = strings.TrimSpace(objectKey)
	if objectKey == "" {
		return nil
	}
	if err := c.api.remove(ctx, c.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		if IsNoSuchKey(err) {
			return nil
		}
		return fmt.Errorf("remove object %q: %w", objectKey, err)
	}
	return nil
}
