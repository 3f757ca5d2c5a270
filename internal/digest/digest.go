// Package digest 把日榜渲染成 Markdown 归档
package digest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/LJTian/WeiboTrending/internal/storage"
)

// RecordLoader 读取某天的日榜
type RecordLoader interface {
	Load(ctx context.Context, date string) (storage.DailyRecord, error)
}

// Renderer 生成 archives/<date>.md
type Renderer struct {
	records RecordLoader
	blobs   storage.BlobStore
	logger  *zap.Logger
}

func NewRenderer(records RecordLoader, blobs storage.BlobStore, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{records: records, blobs: blobs, logger: logger}
}

func ArchiveKey(date string) string {
	return "archives/" + date + ".md"
}

// Render 先覆盖写标题行，再追加正文。两次写入的顺序是对外可见的行为，不能合并
func (r *Renderer) Render(ctx context.Context, date string) (string, error) {
	rec, err := r.records.Load(ctx, date)
	if err != nil {
		return "", fmt.Errorf("load record for digest: %w", err)
	}

	header := Header(date)
	body := Body(rec)
	key := ArchiveKey(date)

	if err := r.blobs.Write(ctx, key, "text/markdown; charset=utf-8", []byte(header)); err != nil {
		return "", fmt.Errorf("write digest header: %w", err)
	}
	if err := r.blobs.Append(ctx, key, []byte(body)); err != nil {
		return "", fmt.Errorf("append digest body: %w", err)
	}

	r.logger.Info("digest rendered", zap.String("date", date), zap.Int("items", len(rec)))
	return header + body, nil
}

func Header(date string) string {
	return "# " + date + " 微博热搜 \n"
}

// Body 序号从 1 开始，顺序即日榜存储顺序；分类为空时不输出标签
func Body(rec storage.DailyRecord) string {
	lines := make([]string, 0, len(rec))
	for i, it := range rec {
		tag := ""
		if it.Category != "" {
			tag = "`" + strings.TrimSpace(it.Category) + "`"
		}
		lines = append(lines, fmt.Sprintf("%d. [%s](%s) %s \n", i+1, it.Title, it.URL, tag))
	}
	return strings.Join(lines, "\n")
}
