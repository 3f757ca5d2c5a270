package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultCronSpec 默认每 30 分钟跑一轮
const DefaultCronSpec = "*/30 * * * *"

// startupDelay 服务启动后延迟执行首轮，先让 HTTP 服务就绪
var startupDelay = 15 * time.Second

type Scheduler struct {
	cron         *cron.Cron
	orchestrator *Orchestrator
	logger       *zap.Logger
}

// New 上一轮还没结束时跳过本次触发，同一时刻最多只有一条流程在跑
func New(spec string, o *Orchestrator, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	s := &Scheduler{
		cron:         c,
		orchestrator: o,
		logger:       logger,
	}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	time.AfterFunc(startupDelay, func() {
		// 走 cron 的 job 包装，和定时触发共用 SkipIfStillRunning
		if entries := s.cron.Entries(); len(entries) > 0 {
			go entries[0].WrappedJob.Run()
		}
	})
}

// Stop 停止调度，返回的 ctx 在进行中的任务结束后 Done
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Cron 暴露底层 cron，方便追加其它定时任务
func (s *Scheduler) Cron() *cron.Cron {
	return s.cron
}

// RunOnce 同步执行一轮，方便手动触发
func (s *Scheduler) RunOnce(ctx context.Context) Result {
	return s.orchestrator.Run(ctx)
}

func (s *Scheduler) runOnce() {
	res := s.orchestrator.Run(context.Background())
	s.logger.Info("scheduled run finished",
		zap.Stringer("status", res.Status),
		zap.Int("attempts", res.Attempts))
}
