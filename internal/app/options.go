package app

import (
	"fmt"
	"os"
	"time"

	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/logger"

	"go.uber.org/zap"
)

// 运行模式：API 与 Worker 可拆分部署
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

const defaultShutdownTimeout = 15 * time.Second

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// ValidateMode 校验运行模式
func ValidateMode(mode string) error {
	switch mode {
	case ModeAll, ModeAPI, ModeWorker:
		return nil
	}
	return fmt.Errorf("unknown run mode %q (want %s, %s or %s)", mode, ModeAll, ModeAPI, ModeWorker)
}

func (r *Runner) servesHTTP() bool {
	for _, svc := range r.services {
		if _, ok := svc.(*HTTPService); ok {
			return true
		}
	}
	return false
}

// normalizeOptions 补齐默认参数
func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	return opts
}
