package storage

import (
	"context"
	"errors"
)

// ErrNotFound 指定 key 的 blob 不存在
var ErrNotFound = errors.New("blob not found")

// BlobStore 按 key 读写整段内容。日榜 JSON 与 Markdown 归档都落在这里
type BlobStore interface {
	// Read 不存在时返回 ErrNotFound
	Read(ctx context.Context, key string) ([]byte, error)
	// Write 覆盖写
	Write(ctx context.Context, key, contentType string, data []byte) error
	// Append 追加写，不存在则创建
	Append(ctx context.Context, key string, data []byte) error
}
