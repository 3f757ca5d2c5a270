package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/LJTian/WeiboTrending/internal/collector"
	"github.com/LJTian/WeiboTrending/internal/logging"
	"github.com/LJTian/WeiboTrending/internal/notify"
	"github.com/LJTian/WeiboTrending/internal/processor"
	"github.com/LJTian/WeiboTrending/internal/storage"
)

// RecordStore 把本轮条目合并进当天的日榜
type RecordStore interface {
	MergeAndPersist(ctx context.Context, date string, items []collector.TrendingItem) (storage.DailyRecord, error)
}

// DigestRenderer 根据日榜重写当天的归档
type DigestRenderer interface {
	Render(ctx context.Context, date string) (string, error)
}

// Pipeline 一轮完整流程：采集 → 转换 → 补充详情 → 合并落盘 → 归档 → 推送
type Pipeline struct {
	Fetcher           collector.Fetcher
	Processor         *processor.SimpleProcessor
	Enricher          collector.Enricher
	Records           RecordStore
	Digest            DigestRenderer
	Sender            notify.Sender
	EnrichConcurrency int
	Location          *time.Location
	Now               func() time.Time
	Logger            *zap.Logger
}

func (p *Pipeline) now() time.Time {
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	if p.Location != nil {
		now = now.In(p.Location)
	}
	return now
}

// RunOnce 执行一轮；任一环节出错即返回，由 Orchestrator 决定是否重试。
// 采集结果为空不算错误，直接结束，不写文件也不推送
func (p *Pipeline) RunOnce(ctx context.Context) error {
	log := logging.FromContext(ctx, p.Logger)

	raw, err := p.Fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", p.Fetcher.Name(), err)
	}
	if len(raw) == 0 {
		log.Info("no trending items, skip", zap.String("source", p.Fetcher.Name()))
		return nil
	}

	proc := p.Processor
	if proc == nil {
		proc = processor.NewSimpleProcessor()
	}
	items := proc.Process(raw)

	if p.Enricher != nil {
		collector.EnrichAll(ctx, p.Enricher, items, p.EnrichConcurrency)
	}

	now := p.now()
	date := now.Format(storage.DateLayout)

	merged, err := p.Records.MergeAndPersist(ctx, date, items)
	if err != nil {
		return fmt.Errorf("persist %s: %w", date, err)
	}
	if _, err := p.Digest.Render(ctx, date); err != nil {
		return fmt.Errorf("render digest %s: %w", date, err)
	}

	// 推送的是本轮采集的榜单，不是合并后的日榜
	if err := p.Sender.Send(ctx, notify.Format(items, now)); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	log.Info("pipeline done",
		zap.String("date", date),
		zap.Int("fetched", len(items)),
		zap.Int("record_size", len(merged)))
	return nil
}
