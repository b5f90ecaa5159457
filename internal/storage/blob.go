package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrBlobNotFound 对象不存在
	ErrBlobNotFound = errors.New("blob not found")
	// ErrBlobExists 对象已存在，写入不覆盖
	ErrBlobExists = errors.New("blob already exists")
	// ErrInvalidKey 存储键非法
	ErrInvalidKey = errors.New("invalid blob key")
	// ErrLinkInvalid 访问链接无效
	ErrLinkInvalid = errors.New("blob link invalid")
	// ErrLinkExpired 访问链接已过期
	ErrLinkExpired = errors.New("blob link expired")
)

// BlobInfo 对象元信息
type BlobInfo struct {
	Key       string
	Size      int64
	UpdatedAt time.Time
}

// BlobStore 不透明对象存储；Upload 不覆盖已有对象
type BlobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	CreateTimeBoundedLink(ctx context.Context, key string, ttl time.Duration) (string, error)
	ResolveLink(ctx context.Context, token string) (string, error)
}
