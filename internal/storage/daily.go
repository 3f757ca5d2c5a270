package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/LJTian/WeiboTrending/internal/collector"
	"github.com/LJTian/WeiboTrending/internal/processor"
)

const DateLayout = "2006-01-02"

// ErrRecordNotFound 指定日期还没有日榜
var ErrRecordNotFound = errors.New("daily record not found")

// DailyRecord 某一天按标题去重后的全部热搜
type DailyRecord []collector.TrendingItem

// DailyStore 日榜存储：api/<date>.json，读-合并-整体覆盖。
// 假定单写者，不做文件锁
type DailyStore struct {
	blobs  BlobStore
	logger *zap.Logger
}

func NewDailyStore(blobs BlobStore, logger *zap.Logger) *DailyStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyStore{blobs: blobs, logger: logger}
}

func RecordKey(date string) string {
	return "api/" + date + ".json"
}

// ValidDate 校验 YYYY-MM-DD
func ValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

// Load 没有记录时返回 ErrRecordNotFound
func (s *DailyStore) Load(ctx context.Context, date string) (DailyRecord, error) {
	data, err := s.blobs.Read(ctx, RecordKey(date))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, date)
	}
	if err != nil {
		return nil, err
	}

	var rec DailyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", RecordKey(date), err)
	}
	return rec, nil
}

// MergeAndPersist 本轮条目在前、已有条目在后，按标题去重后整体覆盖写回
func (s *DailyStore) MergeAndPersist(ctx context.Context, date string, items []collector.TrendingItem) (DailyRecord, error) {
	existing, err := s.Load(ctx, date)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("load daily record: %w", err)
	}

	merged := DailyRecord(processor.Merge(items, existing))

	data, err := encodeRecord(merged)
	if err != nil {
		return nil, fmt.Errorf("encode daily record: %w", err)
	}
	if err := s.blobs.Write(ctx, RecordKey(date), "application/json", data); err != nil {
		return nil, fmt.Errorf("persist daily record: %w", err)
	}

	s.logger.Info("daily record saved",
		zap.String("date", date),
		zap.Int("fresh", len(items)),
		zap.Int("existing", len(existing)),
		zap.Int("merged", len(merged)),
	)
	return merged, nil
}

// encodeRecord 紧凑输出，不转义 HTML 字符
func encodeRecord(rec DailyRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
