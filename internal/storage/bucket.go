package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

// BucketStore 基于 gocloud blob 的对象存储，驱动由存储桶决定
type BucketStore struct {
	bucket *blob.Bucket
	signer *LinkSigner
}

// NewBucketStore 包装已打开的存储桶
func NewBucketStore(bucket *blob.Bucket, signer *LinkSigner) (*BucketStore, error) {
	if bucket == nil {
		return nil, fmt.Errorf("bucket is nil")
	}
	if signer == nil {
		return nil, fmt.Errorf("link signer is nil")
	}
	return &BucketStore{bucket: bucket, signer: signer}, nil
}

// OpenBucketStore 按 URL 打开存储桶（file:///path、mem:// 等）
func OpenBucketStore(ctx context.Context, bucketURL string, signer *LinkSigner) (*BucketStore, error) {
	bucketURL = strings.TrimSpace(bucketURL)
	if bucketURL == "" {
		return nil, fmt.Errorf("storage bucket url is empty")
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket failed: %w", err)
	}
	return NewBucketStore(bucket, signer)
}

// OpenLocalStore 在本地目录上打开 fileblob 存储桶，目录不存在时创建
func OpenLocalStore(root string, signer *LinkSigner) (*BucketStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("storage root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root failed: %w", err)
	}
	bucket, err := fileblob.OpenBucket(root, nil)
	if err != nil {
		return nil, fmt.Errorf("open local bucket failed: %w", err)
	}
	return NewBucketStore(bucket, signer)
}

// Upload 写入对象，键已存在时返回 ErrBlobExists；size 大于 0 时最多写入 size 字节
func (s *BucketStore) Upload(ctx context.Context, key string, r io.Reader, size int64) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	exists, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return ErrBlobExists
	}
	if size > 0 {
		r = io.LimitReader(r, size)
	}

	// 取消上下文后关闭 Writer 会丢弃未完成的写入
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w, err := s.bucket.NewWriter(writeCtx, key, &blob.WriterOptions{IfNotExist: true})
	if err != nil {
		return translateBucketError(err)
	}
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		_ = w.Close()
		return err
	}
	return translateBucketError(w.Close())
}

// Open 读取对象
func (s *BucketStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	reader, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, translateBucketError(err)
	}
	return reader, nil
}

// Delete 删除对象，不存在时视为成功
func (s *BucketStore) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.bucket.Delete(ctx, key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return err
	}
	return nil
}

// List 列出前缀目录下的全部对象
func (s *BucketStore) List(ctx context.Context, prefix string) ([]BlobInfo, error) {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix != "" {
		cleaned, err := cleanKey(prefix)
		if err != nil {
			return nil, err
		}
		prefix = cleaned + "/"
	}
	items := make([]BlobInfo, 0)
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if obj.IsDir {
			continue
		}
		items = append(items, BlobInfo{
			Key:       obj.Key,
			Size:      obj.Size,
			UpdatedAt: obj.ModTime,
		})
	}
	return items, nil
}

// CreateTimeBoundedLink 生成限时访问链接，对象必须已存在
// 驱动支持签名 URL 时直接使用，否则签发经 /proofs/:token 读取的令牌链接
func (s *BucketStore) CreateTimeBoundedLink(ctx context.Context, key string, ttl time.Duration) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	exists, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrBlobNotFound
	}
	signed, err := s.bucket.SignedURL(ctx, key, &blob.SignedURLOptions{Expiry: ttl})
	if err == nil {
		return signed, nil
	}
	if gcerrors.Code(err) != gcerrors.Unimplemented {
		return "", err
	}
	return s.signer.Sign(key, ttl)
}

// ResolveLink 校验访问令牌并返回存储键
func (s *BucketStore) ResolveLink(_ context.Context, token string) (string, error) {
	return s.signer.Resolve(token)
}

// Close 关闭存储桶
func (s *BucketStore) Close() error {
	return s.bucket.Close()
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "\\") || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func translateBucketError(err error) error {
	switch gcerrors.Code(err) {
	case gcerrors.OK:
		return nil
	case gcerrors.NotFound:
		return ErrBlobNotFound
	case gcerrors.FailedPrecondition, gcerrors.AlreadyExists:
		return ErrBlobExists
	}
	return err
}
