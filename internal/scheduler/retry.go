package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LJTian/WeiboTrending/internal/logging"
)

// DefaultAttempts 整个流程最多执行的次数
const DefaultAttempts = 5

// Runner 一次可重试的流程
type Runner interface {
	RunOnce(ctx context.Context) error
}

// Status 一次编排运行的最终状态
type Status int

const (
	StatusSuccess Status = iota
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result Run 的返回值；Err 是最后一次失败的原因
type Result struct {
	Status   Status
	Attempts int
	Err      error
}

// Orchestrator 失败后立即整体重跑，不做退避
type Orchestrator struct {
	runner   Runner
	attempts int
	logger   *zap.Logger
}

func NewOrchestrator(runner Runner, attempts int, logger *zap.Logger) *Orchestrator {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{runner: runner, attempts: attempts, logger: logger}
}

// Run 状态机：Attempting(remaining) → Success | Exhausted
func (o *Orchestrator) Run(ctx context.Context) Result {
	runID := uuid.NewString()
	remaining := o.attempts
	res := Result{Status: StatusExhausted}

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			res.Err = err
			break
		}
		res.Attempts++
		log := o.logger.With(zap.String("run_id", runID), zap.Int("attempt", res.Attempts))

		log.Info("pipeline attempt start")
		err := o.runner.RunOnce(logging.WithContext(ctx, log))
		if err == nil {
			attemptsTotal.WithLabelValues("success").Inc()
			runsTotal.WithLabelValues(StatusSuccess.String()).Inc()
			res.Status = StatusSuccess
			res.Err = nil
			return res
		}

		remaining--
		attemptsTotal.WithLabelValues("failed").Inc()
		res.Err = err
		log.Error("pipeline attempt failed", zap.Int("remaining", remaining), zap.Error(err))
	}

	runsTotal.WithLabelValues(StatusExhausted.String()).Inc()
	o.logger.Error("pipeline retries exhausted",
		zap.String("run_id", runID),
		zap.Int("attempts", res.Attempts),
		zap.Error(res.Err))
	return res
}

// ExitCode 进程退出码；重试耗尽也返回 0
func ExitCode(Result) int {
	return 0
}
