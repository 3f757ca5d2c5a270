package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/LJTian/WeiboTrending/internal/api"
	"github.com/LJTian/WeiboTrending/internal/app"
	"github.com/LJTian/WeiboTrending/internal/config"
	"github.com/LJTian/WeiboTrending/internal/logging"
	"github.com/LJTian/WeiboTrending/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

// 常驻服务：按 cron.spec 定时跑采集流程，同时提供日榜 / 归档的只读 HTTP 接口
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "api:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:           "api",
		Short:         "Serve daily Weibo hot search records and run the collector on a schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), cfgFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	cmd.SetContext(context.Background())
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // 退出前尽量刷盘

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("close app", zap.Error(cerr))
		}
	}()

	s, err := scheduler.New(cfg.CronSpec, a.Orchestrator, logger)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	s.Start()
	defer func() {
		// 等进行中的一轮结束
		<-s.Stop().Done()
	}()

	if !cfg.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	api.NewServer(a.Records, a.Blobs, logger).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting api server", zap.String("addr", srv.Addr), zap.String("cron", cfg.CronSpec))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server exit: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
