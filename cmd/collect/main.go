package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/LJTian/WeiboTrending/internal/app"
	"github.com/LJTian/WeiboTrending/internal/config"
	"github.com/LJTian/WeiboTrending/internal/logging"
	"github.com/LJTian/WeiboTrending/internal/scheduler"
)

// 只执行一轮（带重试）采集推送后退出，适合 cron / CI 定时触发
func main() {
	code := 0
	if err := newRootCmd(&code).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "collect:", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func newRootCmd(exitCode *int) *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:           "collect",
		Short:         "Fetch Weibo hot search once, archive it and post it to Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), cfgFile)
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.LogDevelopment)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // 退出前尽量刷盘

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
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

			res := a.Run(ctx)
			logger.Info("collect finished",
				zap.Stringer("status", res.Status),
				zap.Int("attempts", res.Attempts))
			*exitCode = scheduler.ExitCode(res)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	cmd.SetContext(context.Background())
	return cmd
}
